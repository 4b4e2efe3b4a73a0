package tracesink

import (
	"github.com/bft-labs/tracesink/internal/adapters/fs"
	"github.com/bft-labs/tracesink/internal/metrics"
	"github.com/bft-labs/tracesink/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by both sinks.
type Metrics = metrics.Metrics

// NewMetrics creates the collectors and registers them with reg. Pass the
// result to WithMetrics for every sink that should report to reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return metrics.New(reg)
}

// Option configures optional behavior of a sink.
type Option func(*options)

// options holds the optional configuration shared by the constructors.
type options struct {
	logger       log.Logger
	errorHandler ErrorHandler
	metrics      *Metrics
	filter       Filter
	syncDrain    bool
	store        SnapshotStore
	fileWriter   fs.FileWriterOptions
}

func buildOptions(opts []Option) options {
	o := options{
		fileWriter: fs.FileWriterOptions{JSONArray: true},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithErrorHandler receives swallowed I/O failures.
// If not provided, failures are logged at error level.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		o.errorHandler = h
	}
}

// WithMetrics reports sink activity to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFilter replaces the AsyncSink accept filter. The default accepts
// trace records only.
func WithFilter(f Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// WithSynchronousDrain writes snapshots on the publishing goroutine.
// Intended for tests.
func WithSynchronousDrain() Option {
	return func(o *options) {
		o.syncDrain = true
	}
}

// WithSnapshotStore replaces the file store of a SnapshotTriage.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithFileWriterOptions configures the writer opened by NewFileAsyncSink.
func WithFileWriterOptions(fo FileWriterOptions) Option {
	return func(o *options) {
		o.fileWriter = fo
	}
}
