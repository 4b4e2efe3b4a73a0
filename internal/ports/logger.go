package ports

import "github.com/bft-labs/tracesink/pkg/log"

// Logger is the structured logging port used by the application layer.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for internal packages.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)

// NewNoopLogger returns the logger used when none is configured.
func NewNoopLogger() Logger { return log.NewNoopLogger() }
