package domain

// Batch is an ordered run of records handed from producers to the writer.
// A batch flagged as closing carries the close sentinel after its last record.
type Batch struct {
	// Records are forwarded to the writer in slice order.
	Records []Record

	closing bool
}

// NewBatch creates a new empty batch with room for capacity records.
func NewBatch(capacity int) *Batch {
	return &Batch{
		Records: make([]Record, 0, capacity),
	}
}

// Add appends a record to the batch.
func (b *Batch) Add(rec Record) {
	b.Records = append(b.Records, rec)
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// MarkClosing appends the close sentinel. The writer stops after this batch.
func (b *Batch) MarkClosing() {
	b.closing = true
}

// Closing reports whether the batch carries the close sentinel.
func (b *Batch) Closing() bool {
	return b.closing
}
