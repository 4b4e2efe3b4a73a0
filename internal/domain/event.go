package domain

import (
	"fmt"
	"math"
)

// Phase is the begin/end marker of a trace event.
type Phase int

const (
	PhaseOther Phase = iota
	PhaseBegin
	PhaseEnd
)

// String returns the trace-event phase letter.
func (p Phase) String() string {
	switch p {
	case PhaseBegin:
		return "B"
	case PhaseEnd:
		return "E"
	default:
		return "other"
	}
}

// nanosPerSecond converts raw record timestamps into TraceEvent seconds.
const nanosPerSecond = 1e9

// TraceEvent is a record decoded for triage.
// Timestamp is expressed in seconds so it compares directly with timeouts.
type TraceEvent struct {
	Timestamp float64
	Phase     Phase
	PID       string
	TID       string
	Payload   string
}

// ScopeKey identifies the scope stack an event belongs to.
type ScopeKey struct {
	PID string
	TID string
}

// Key returns the (pid, tid) pair of the event.
func (e TraceEvent) Key() ScopeKey {
	return ScopeKey{PID: e.PID, TID: e.TID}
}

// DecodeTraceEvent builds a TraceEvent from the positional params of a record.
// It requires at least three params: an integer timestamp in nanoseconds, a
// phase marker and a pid marker. A fourth param, when present, is the tid;
// otherwise the tid is the pid.
func DecodeTraceEvent(rec Record) (TraceEvent, error) {
	if !rec.Trace || len(rec.Params) < 3 {
		return TraceEvent{}, ErrMalformedRecord
	}

	raw, ok := rawTimestamp(rec.Params[0])
	if !ok {
		return TraceEvent{}, fmt.Errorf("%w: timestamp %T is not an integer", ErrMalformedRecord, rec.Params[0])
	}
	if rec.Params[2] == nil {
		return TraceEvent{}, fmt.Errorf("%w: missing pid", ErrMalformedRecord)
	}

	pid := fmt.Sprint(rec.Params[2])
	tid := pid
	if len(rec.Params) > 3 && rec.Params[3] != nil {
		tid = fmt.Sprint(rec.Params[3])
	}

	return TraceEvent{
		Timestamp: float64(raw) / nanosPerSecond,
		Phase:     parsePhase(rec.Params[1]),
		PID:       pid,
		TID:       tid,
		Payload:   rec.Message,
	}, nil
}

func rawTimestamp(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	default:
		return 0, false
	}
}

func parsePhase(v any) Phase {
	var s string
	switch t := v.(type) {
	case rune:
		s = string(t)
	case byte:
		s = string(rune(t))
	case string:
		s = t
	default:
		return PhaseOther
	}
	switch s {
	case "B":
		return PhaseBegin
	case "E":
		return PhaseEnd
	default:
		return PhaseOther
	}
}
