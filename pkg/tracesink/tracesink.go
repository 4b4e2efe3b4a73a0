package tracesink

import (
	"github.com/bft-labs/tracesink/internal/adapters/fs"
	"github.com/bft-labs/tracesink/internal/app"
	"github.com/bft-labs/tracesink/internal/config"
	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/bft-labs/tracesink/internal/ports"
)

type (
	// Record is a single formatted unit handed to the sinks.
	Record = domain.Record

	// Level is the severity of a record.
	Level = domain.Level

	// TraceEvent is a record decoded for triage.
	TraceEvent = domain.TraceEvent

	// AsyncConfig configures an AsyncSink.
	AsyncConfig = config.AsyncConfig

	// SnapshotConfig configures a SnapshotTriage.
	SnapshotConfig = config.SnapshotConfig

	// Writer persists records for an AsyncSink.
	Writer = ports.Writer

	// Formatter renders a record into persisted text.
	Formatter = ports.Formatter

	// Filter decides whether a sink accepts a record.
	Filter = ports.Filter

	// SnapshotStore persists drained snapshot windows.
	SnapshotStore = ports.SnapshotStore

	// ErrorHandler receives failures the sinks swallow.
	ErrorHandler = ports.ErrorHandler

	// ErrorHandlerFunc adapts a function to ErrorHandler.
	ErrorHandlerFunc = ports.ErrorHandlerFunc

	// ErrorCode classifies reported failures.
	ErrorCode = ports.ErrorCode

	// AsyncSink batches records to a Writer on a dedicated goroutine.
	AsyncSink = app.AsyncSink

	// SnapshotTriage dumps recent events when a root scope is slow.
	SnapshotTriage = app.SnapshotTriage

	// FileWriterOptions configures the file writer behind NewFileAsyncSink.
	FileWriterOptions = fs.FileWriterOptions
)

const (
	LevelTrace = domain.LevelTrace
	LevelDebug = domain.LevelDebug
	LevelInfo  = domain.LevelInfo
	LevelWarn  = domain.LevelWarn
	LevelError = domain.LevelError
)

const (
	GenericFailure = ports.GenericFailure
	WriteFailure   = ports.WriteFailure
	FlushFailure   = ports.FlushFailure
	CloseFailure   = ports.CloseFailure
	ClosedFailure  = ports.ClosedFailure
	DrainFailure   = ports.DrainFailure
)

// ErrClosed is returned by operations on a closed sink.
var ErrClosed = domain.ErrClosed

// NewTraceRecord creates a trace record. params are the raw timestamp in
// nanoseconds, the phase marker ('B', 'E' or anything else), the pid marker
// and an optional tid marker.
func NewTraceRecord(level Level, message string, params ...any) Record {
	return domain.NewTraceRecord(level, message, params...)
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	return domain.ParseLevel(s)
}

// DefaultAsyncConfig returns an AsyncConfig with default values.
func DefaultAsyncConfig() AsyncConfig {
	return config.DefaultAsyncConfig()
}

// DefaultSnapshotConfig returns a SnapshotConfig with default values.
func DefaultSnapshotConfig() SnapshotConfig {
	return config.DefaultSnapshotConfig()
}

// NewAsyncSink starts an AsyncSink writing to w.
func NewAsyncSink(cfg AsyncConfig, w Writer, opts ...Option) *AsyncSink {
	o := buildOptions(opts)
	return app.NewAsyncSink(cfg, w, app.AsyncOptions{
		Filter:       o.filter,
		ErrorHandler: o.errorHandler,
		Logger:       o.logger,
		Metrics:      o.metrics,
	})
}

// NewFileAsyncSink starts an AsyncSink writing a trace-event JSON array to
// path. Use WithFileWriterOptions for plain line output.
func NewFileAsyncSink(path string, cfg AsyncConfig, opts ...Option) (*AsyncSink, error) {
	o := buildOptions(opts)
	w, err := fs.OpenFileWriter(path, o.fileWriter)
	if err != nil {
		return nil, err
	}
	return NewAsyncSink(cfg, w, opts...), nil
}

// NewSnapshotTriage creates a SnapshotTriage. Windows are written to
// cfg.Dir unless WithSnapshotStore supplies another store. Build cfg from
// DefaultSnapshotConfig; see SnapshotConfig for which zero values are kept.
func NewSnapshotTriage(cfg SnapshotConfig, opts ...Option) *SnapshotTriage {
	o := buildOptions(opts)
	store := o.store
	if store == nil {
		cfg.Normalize()
		store = fs.NewSnapshotFileStore(cfg.Dir, cfg.FilePathPrefix)
	}
	return app.NewSnapshotTriage(cfg, store, app.SnapshotOptions{
		SynchronousDrain: o.syncDrain,
		ErrorHandler:     o.errorHandler,
		Logger:           o.logger,
		Metrics:          o.metrics,
	})
}

// TraceRecordsOnly is the default AsyncSink filter.
func TraceRecordsOnly(rec Record) bool {
	return app.TraceRecordsOnly(rec)
}
