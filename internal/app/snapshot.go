package app

import (
	"sync"
	"sync/atomic"

	"github.com/bft-labs/tracesink/internal/config"
	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/bft-labs/tracesink/internal/metrics"
	"github.com/bft-labs/tracesink/internal/ports"
)

const snapshotSinkName = "snapshot"

// SnapshotOptions carries the optional collaborators of a SnapshotTriage.
type SnapshotOptions struct {
	// SynchronousDrain writes drained snapshots on the publishing goroutine.
	// Intended for tests.
	SynchronousDrain bool

	// ErrorHandler receives swallowed drain failures.
	ErrorHandler ports.ErrorHandler

	// Logger defaults to a no-op logger when nil.
	Logger ports.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// SnapshotTriage keeps a bounded rolling window of recent trace events and
// persists it only when a root scope, a Begin/End pair that returns its
// (pid, tid) stack to empty, lasts longer than the configured timeout.
//
// Eviction from the window ignores correlation state: an evicted Begin still
// sits on its scope stack and will be matched by its End.
type SnapshotTriage struct {
	mu      sync.Mutex
	buffer  *ringBuffer[domain.TraceEvent]
	stacks  map[domain.ScopeKey][]domain.TraceEvent
	timeout float64

	enabled atomic.Bool
	level   atomic.Int32

	store     ports.SnapshotStore
	syncDrain bool
	drains    sync.WaitGroup
	errs      ports.ErrorHandler
	logger    ports.Logger
	metrics   *metrics.Metrics
}

// NewSnapshotTriage creates a triage writing drained windows to store.
// Invalid configuration values fall back to defaults.
func NewSnapshotTriage(cfg config.SnapshotConfig, store ports.SnapshotStore, opts SnapshotOptions) *SnapshotTriage {
	cfg.Normalize()
	if opts.Logger == nil {
		opts.Logger = ports.NewNoopLogger()
	}
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = loggingErrorHandler{logger: opts.Logger}
	}

	t := &SnapshotTriage{
		buffer:    newRingBuffer[domain.TraceEvent](cfg.MaxEvents),
		stacks:    make(map[domain.ScopeKey][]domain.TraceEvent),
		timeout:   cfg.Timeout,
		store:     store,
		syncDrain: opts.SynchronousDrain,
		errs:      opts.ErrorHandler,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	t.enabled.Store(cfg.Enabled)
	t.level.Store(int32(cfg.Level))
	return t
}

// IsLoggable reports whether rec would be triaged.
func (t *SnapshotTriage) IsLoggable(rec domain.Record) bool {
	return t.enabled.Load() && rec.Trace && int32(rec.Level) >= t.level.Load()
}

// Publish buffers rec and evaluates the drain trigger. It never blocks on
// I/O; a triggered drain runs on its own goroutine unless synchronous
// draining was requested.
func (t *SnapshotTriage) Publish(rec domain.Record) {
	if !t.IsLoggable(rec) {
		return
	}

	ev, err := domain.DecodeTraceEvent(rec)
	if err != nil {
		t.metrics.Dropped(snapshotSinkName, "malformed")
		return
	}

	t.mu.Lock()
	detached := t.addLocked(ev)
	buffered := t.buffer.size()
	t.mu.Unlock()

	t.metrics.Published(snapshotSinkName)
	t.metrics.SetBuffered(buffered)

	if detached != nil {
		t.drain(detached)
	}
}

// addLocked appends ev to the window and updates its scope stack.
// It returns the detached window when ev closes a slow root scope.
func (t *SnapshotTriage) addLocked(ev domain.TraceEvent) []domain.TraceEvent {
	t.buffer.add(ev)

	key := ev.Key()
	switch ev.Phase {
	case domain.PhaseBegin:
		t.stacks[key] = append(t.stacks[key], ev)

	case domain.PhaseEnd:
		stack := t.stacks[key]
		if len(stack) == 0 {
			t.metrics.OrphanEnd()
			return nil
		}
		begin := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			t.stacks[key] = stack
			return nil
		}

		// Root scope closed; drop the empty stack so idle threads cost nothing.
		delete(t.stacks, key)
		if ev.Timestamp-begin.Timestamp > t.timeout {
			return t.buffer.detach()
		}
	}
	return nil
}

func (t *SnapshotTriage) drain(events []domain.TraceEvent) {
	t.metrics.Drain()

	if t.syncDrain {
		t.writeSnapshot(events)
		return
	}

	t.drains.Add(1)
	go func() {
		defer t.drains.Done()
		t.writeSnapshot(events)
	}()
}

func (t *SnapshotTriage) writeSnapshot(events []domain.TraceEvent) {
	if len(events) == 0 {
		return
	}
	path, err := t.store.Store(events)
	if err != nil {
		t.metrics.IOError(ports.DrainFailure.String())
		t.errs.HandleError(err, ports.DrainFailure)
		return
	}
	t.logger.Info("snapshot drained",
		ports.String("path", path),
		ports.Int("events", len(events)),
	)
}

// Wait blocks until all in-flight drains have finished.
func (t *SnapshotTriage) Wait() {
	t.drains.Wait()
}

// SetEnabled toggles triage. Disabled triage ignores every record.
func (t *SnapshotTriage) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// Enabled reports whether triage is enabled.
func (t *SnapshotTriage) Enabled() bool {
	return t.enabled.Load()
}

// SetTimeout changes the root-scope duration threshold, in seconds.
// Negative or NaN values restore the default.
func (t *SnapshotTriage) SetTimeout(seconds float64) {
	if !(seconds >= 0) {
		seconds = config.DefaultTimeout
	}
	t.mu.Lock()
	t.timeout = seconds
	t.mu.Unlock()
}

// Timeout returns the root-scope duration threshold, in seconds.
func (t *SnapshotTriage) Timeout() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// SetLevel changes the minimum severity of triaged records.
func (t *SnapshotTriage) SetLevel(level domain.Level) {
	t.level.Store(int32(level))
}

// Len returns the number of buffered events.
func (t *SnapshotTriage) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer.size()
}

// Depth returns the number of open scopes for key.
func (t *SnapshotTriage) Depth(key domain.ScopeKey) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stacks[key])
}
