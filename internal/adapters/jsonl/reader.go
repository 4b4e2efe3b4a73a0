// Package jsonl reads trace events encoded as JSON lines and turns them into
// records ready for publishing.
//
// Input may be one object per line or the JSON array produced by a FileWriter
// in array mode; array brackets and element separators are stripped.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/bft-labs/tracesink/internal/domain"
)

const maxLineSize = 4 * 1024 * 1024

// event holds the fields triage needs. Everything else stays in the payload.
type event struct {
	TS  json.Number `json:"ts"`
	Ph  string      `json:"ph"`
	PID any         `json:"pid"`
	TID any         `json:"tid"`
}

// Reader yields one record per non-empty input line.
type Reader struct {
	scanner *bufio.Scanner
	level   domain.Level
	line    int
}

// NewReader creates a Reader that stamps every record with level.
func NewReader(r io.Reader, level domain.Level) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: s, level: level}
}

// Next returns the next record, or io.EOF when the input is exhausted.
//
// A line that is not a JSON object becomes a plain record (Trace false). A
// JSON object missing ts, ph or pid becomes a trace record without params,
// which triage skips as malformed.
func (r *Reader) Next(ctx context.Context) (domain.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Record{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return domain.Record{}, fmt.Errorf("read line %d: %w", r.line+1, err)
			}
			return domain.Record{}, io.EOF
		}
		r.line++

		line := trimLine(r.scanner.Text())
		if line == "" {
			continue
		}
		return r.parse(line), nil
	}
}

// Line returns the number of input lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) parse(line string) domain.Record {
	if !strings.HasPrefix(line, "{") {
		return domain.Record{Level: r.level, Message: line}
	}

	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	var ev event
	if err := dec.Decode(&ev); err != nil {
		return domain.Record{Level: r.level, Message: line}
	}

	rec := domain.NewTraceRecord(r.level, line)
	params, ok := ev.params()
	if ok {
		rec.Params = params
	}
	return rec
}

// params converts the event into positional params: nanosecond timestamp,
// phase, pid and, when present, tid.
func (ev event) params() ([]any, bool) {
	if ev.TS == "" || ev.Ph == "" || ev.PID == nil {
		return nil, false
	}
	us, err := ev.TS.Float64()
	if err != nil {
		return nil, false
	}

	params := []any{int64(math.Round(us * 1000)), ev.Ph, marker(ev.PID)}
	if ev.TID != nil {
		params = append(params, marker(ev.TID))
	}
	return params, true
}

// marker renders a pid or tid; numbers keep their literal form.
func marker(v any) string {
	return fmt.Sprint(v)
}

func trimLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",")
	return strings.TrimSpace(s)
}
