package app

import "github.com/bft-labs/tracesink/internal/domain"

// Batcher accumulates records into the current batch.
// It is not safe for concurrent use; AsyncSink guards it with its lock.
type Batcher struct {
	batch        *domain.Batch
	maxBatchSize int
}

// NewBatcher creates a new batcher that fills batches up to maxBatchSize records.
func NewBatcher(maxBatchSize int) *Batcher {
	return &Batcher{
		batch:        domain.NewBatch(maxBatchSize),
		maxBatchSize: maxBatchSize,
	}
}

// Add appends a record to the current batch.
// Returns true if the batch is full and should be submitted.
func (b *Batcher) Add(rec domain.Record) bool {
	b.batch.Add(rec)
	return b.batch.Size() >= b.maxBatchSize
}

// Swap returns the current batch and installs a fresh empty one.
func (b *Batcher) Swap() *domain.Batch {
	full := b.batch
	b.batch = domain.NewBatch(b.maxBatchSize)
	return full
}

// Batch returns the current batch.
func (b *Batcher) Batch() *domain.Batch {
	return b.batch
}

// HasPending returns true if there are records waiting to be submitted.
func (b *Batcher) HasPending() bool {
	return !b.batch.Empty()
}
