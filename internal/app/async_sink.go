package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/tracesink/internal/config"
	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/bft-labs/tracesink/internal/metrics"
	"github.com/bft-labs/tracesink/internal/ports"
)

const asyncSinkName = "async"

// AsyncOptions carries the optional collaborators of an AsyncSink.
type AsyncOptions struct {
	// Filter decides which records are accepted. Defaults to TraceRecordsOnly.
	Filter ports.Filter

	// ErrorHandler receives swallowed writer failures.
	ErrorHandler ports.ErrorHandler

	// Logger defaults to a no-op logger when nil.
	Logger ports.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// TraceRecordsOnly accepts records produced by the trace-event API.
func TraceRecordsOnly(rec domain.Record) bool {
	return rec.Trace
}

// AsyncSink decouples producers from file I/O. Records are grouped into
// batches under a single lock and handed over a bounded queue to one writer
// goroutine, so the persisted order is the order in which records were
// assigned to batches, across all producers.
type AsyncSink struct {
	mu      sync.Mutex
	batcher *Batcher
	closed  bool

	queue  chan *domain.Batch
	writer ports.Writer

	filter    ports.Filter
	errs      ports.ErrorHandler
	logger    ports.Logger
	metrics   *metrics.Metrics
	lifecycle *Lifecycle

	writerDone chan struct{}
	tickerStop chan struct{}
	tickerDone chan struct{}
}

// NewAsyncSink creates the queue, starts the writer goroutine and the
// periodic flush ticker. Invalid configuration values fall back to defaults.
func NewAsyncSink(cfg config.AsyncConfig, w ports.Writer, opts AsyncOptions) *AsyncSink {
	cfg.Normalize()
	opts.setDefaults()

	s := &AsyncSink{
		batcher:    NewBatcher(cfg.MaxBatchSize),
		queue:      make(chan *domain.Batch, cfg.QueueDepth),
		writer:     w,
		filter:     opts.Filter,
		errs:       opts.ErrorHandler,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		lifecycle:  NewLifecycle(opts.Logger),
		writerDone: make(chan struct{}),
		tickerStop: make(chan struct{}),
		tickerDone: make(chan struct{}),
	}

	go s.run()
	go s.tick(cfg.FlushInterval)

	s.logger.Debug("async sink started",
		ports.Int("max_batch_size", cfg.MaxBatchSize),
		ports.Int("queue_depth", cfg.QueueDepth),
		ports.Duration("flush_interval", cfg.FlushInterval),
	)
	return s
}

// Publish appends rec to the current batch. When the batch is full it is
// submitted to the queue; if the queue is full Publish blocks until the
// writer catches up.
func (s *AsyncSink) Publish(rec domain.Record) {
	if !s.filter(rec) {
		s.metrics.Dropped(asyncSinkName, "filtered")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.metrics.Dropped(asyncSinkName, "closed")
		s.errs.HandleError(domain.ErrClosed, ports.ClosedFailure)
		return
	}
	if s.batcher.Add(rec) {
		s.submitLocked()
	}
	s.mu.Unlock()

	s.metrics.Published(asyncSinkName)
}

// Flush submits the current batch regardless of its size.
// It is a no-op when the batch is empty or the sink is closed.
func (s *AsyncSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.batcher.HasPending() {
		return
	}
	s.submitLocked()
}

// Pending returns the number of records in the current, unsubmitted batch.
func (s *AsyncSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batcher.Batch().Size()
}

// Close submits the current batch followed by the close sentinel, waits for
// the writer goroutine to flush and close the writer, then stops the ticker.
// Everything published before Close returns has reached the writer.
// A second call returns domain.ErrClosed.
func (s *AsyncSink) Close() error {
	if err := s.lifecycle.TransitionTo(StateClosing, "Close() called"); err != nil {
		return err
	}

	s.mu.Lock()
	s.closed = true
	last := s.batcher.Swap()
	last.MarkClosing()
	s.queue <- last
	s.metrics.BatchSubmitted()
	s.mu.Unlock()

	<-s.writerDone
	close(s.tickerStop)
	<-s.tickerDone

	return s.lifecycle.TransitionTo(StateClosed, "writer terminated")
}

// State returns the current lifecycle state.
func (s *AsyncSink) State() State {
	return s.lifecycle.State()
}

// submitLocked hands the current batch to the queue. Callers hold s.mu, which
// keeps batch submission strictly sequential.
func (s *AsyncSink) submitLocked() {
	s.queue <- s.batcher.Swap()
	s.metrics.BatchSubmitted()
}

// run is the single writer goroutine.
func (s *AsyncSink) run() {
	defer close(s.writerDone)

	for b := range s.queue {
		for _, rec := range b.Records {
			if err := s.write(rec); err != nil {
				s.report(err, ports.WriteFailure)
			}
		}
		s.metrics.Written(b.Size())

		if b.Closing() {
			if err := s.writer.Flush(); err != nil {
				s.report(err, ports.FlushFailure)
			}
			if err := s.writer.Close(); err != nil {
				s.report(err, ports.CloseFailure)
			}
			return
		}
	}
}

// write forwards one record, turning a writer panic into an error so the
// writer goroutine keeps running.
func (s *AsyncSink) write(rec domain.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writer panic: %v", r)
		}
	}()
	return s.writer.Write(rec)
}

// tick flushes partial batches so low traffic still reaches the writer.
func (s *AsyncSink) tick(interval time.Duration) {
	defer close(s.tickerDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.tickerStop:
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

func (s *AsyncSink) report(err error, code ports.ErrorCode) {
	s.metrics.IOError(code.String())
	s.errs.HandleError(err, code)
}

func (o *AsyncOptions) setDefaults() {
	if o.Filter == nil {
		o.Filter = TraceRecordsOnly
	}
	if o.Logger == nil {
		o.Logger = ports.NewNoopLogger()
	}
	if o.ErrorHandler == nil {
		o.ErrorHandler = loggingErrorHandler{logger: o.Logger}
	}
}
