package ports

// ErrorCode classifies failures reported to an ErrorHandler.
type ErrorCode int

const (
	GenericFailure ErrorCode = iota
	WriteFailure
	FlushFailure
	CloseFailure
	ClosedFailure
	DrainFailure
)

// String returns a human-readable representation of the code.
func (c ErrorCode) String() string {
	switch c {
	case WriteFailure:
		return "write"
	case FlushFailure:
		return "flush"
	case CloseFailure:
		return "close"
	case ClosedFailure:
		return "closed"
	case DrainFailure:
		return "drain"
	default:
		return "generic"
	}
}

// ErrorHandler receives failures that the sinks swallow. Implementations must
// not block for long and must be safe for concurrent use.
type ErrorHandler interface {
	HandleError(err error, code ErrorCode)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(err error, code ErrorCode)

// HandleError calls f(err, code).
func (f ErrorHandlerFunc) HandleError(err error, code ErrorCode) { f(err, code) }
