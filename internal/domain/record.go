package domain

import (
	"fmt"
	"strings"
)

// Level is the severity of a record. Higher values are more severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String returns a human-readable representation of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "finest", "finer":
		return LevelTrace, nil
	case "debug", "fine":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "severe":
		return LevelError, nil
	default:
		return LevelTrace, fmt.Errorf("unknown level %q", s)
	}
}

// Record is a single formatted unit produced by the upstream formatter.
//
// Message is the opaque serialized payload. Params carries the positional
// metadata used to build a TraceEvent: raw timestamp in nanoseconds, phase
// marker, pid marker and an optional tid marker. Trace marks records that
// were produced by the trace-event API, as opposed to plain log lines.
type Record struct {
	Level   Level
	Message string
	Params  []any
	Trace   bool
}

// NewTraceRecord creates a trace record with the given payload and positional params.
func NewTraceRecord(level Level, message string, params ...any) Record {
	return Record{
		Level:   level,
		Message: message,
		Params:  params,
		Trace:   true,
	}
}
