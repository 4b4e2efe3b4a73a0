package ports

import "github.com/bft-labs/tracesink/internal/domain"

// Writer durably persists formatted records. AsyncSink drives exactly one
// Writer from its dedicated writer goroutine, so implementations need not be
// safe for concurrent use.
type Writer interface {
	// Write persists one record.
	Write(rec domain.Record) error

	// Flush forces buffered records to durable storage.
	Flush() error

	// Close flushes and releases the underlying resource.
	Close() error
}

// Formatter renders a record into the text persisted by a Writer.
type Formatter func(rec domain.Record) string

// Filter decides whether a sink accepts a record.
type Filter func(rec domain.Record) bool

// SnapshotStore persists one drained snapshot window.
type SnapshotStore interface {
	// Store writes the events as a single artifact and returns its location.
	Store(events []domain.TraceEvent) (string, error)
}
