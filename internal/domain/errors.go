package domain

import "errors"

// Domain errors represent error conditions in the tracesink domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrClosed is returned when a sink is used after Close().
	ErrClosed = errors.New("tracesink: sink closed")

	// ErrMalformedRecord is returned when a record cannot be decoded into a TraceEvent.
	ErrMalformedRecord = errors.New("tracesink: malformed trace record")
)
