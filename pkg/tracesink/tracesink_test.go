package tracesink_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/tracesink/pkg/tracesink"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
)

func payload(ts int64, ph string) string {
	return fmt.Sprintf(`{"ts":%d,"ph":"%s","pid":"P","tid":"T"}`, ts/1000, ph)
}

func traceEvent(ts int64, ph rune) tracesink.Record {
	return tracesink.NewTraceRecord(tracesink.LevelInfo, payload(ts, string(ph)), ts, ph, "P", "T")
}

func TestSnapshotTriage_WritesSlowRequest(t *testing.T) {
	dir := t.TempDir()
	cfg := tracesink.DefaultSnapshotConfig()
	cfg.Timeout = 0.5
	cfg.Dir = dir

	triage := tracesink.NewSnapshotTriage(cfg, tracesink.WithSynchronousDrain())

	// Fast request: no artifact.
	triage.Publish(traceEvent(0, 'B'))
	triage.Publish(traceEvent(400_000_000, 'E'))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("fast request produced %d files", len(entries))
	}

	// Slow request: both events land in request-10.json.
	triageSlow := tracesink.NewSnapshotTriage(cfg, tracesink.WithSynchronousDrain())
	triageSlow.Publish(traceEvent(10_000_000_000, 'B'))
	triageSlow.Publish(traceEvent(70_000_000_000, 'E'))

	data, err := os.ReadFile(filepath.Join(dir, "request-10.json"))
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	want := "[" + payload(10_000_000_000, "B") + ",\n" + payload(70_000_000_000, "E") + "]"
	if string(data) != want {
		t.Errorf("snapshot = %q, want %q", data, want)
	}

	var events []map[string]any
	if err := json.Unmarshal(data, &events); err != nil {
		t.Errorf("snapshot is not a JSON array: %v", err)
	}
}

func TestSnapshotTriage_SameSecondDrainsKeepEveryWindow(t *testing.T) {
	dir := t.TempDir()
	cfg := tracesink.DefaultSnapshotConfig()
	cfg.Timeout = 0.1
	cfg.Dir = dir

	triage := tracesink.NewSnapshotTriage(cfg, tracesink.WithSynchronousDrain())
	rec := func(msg string, ts int64, ph rune, tid string) tracesink.Record {
		return tracesink.NewTraceRecord(tracesink.LevelInfo, msg, ts, ph, "P", tid)
	}
	triage.Publish(rec(`"b1"`, 10_000_000_000, 'B', "T1"))
	triage.Publish(rec(`"e1"`, 10_500_000_000, 'E', "T1"))
	triage.Publish(rec(`"b2"`, 10_600_000_000, 'B', "T2"))
	triage.Publish(rec(`"e2"`, 10_900_000_000, 'E', "T2"))

	got := map[string]string{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		got[e.Name()] = string(data)
	}
	want := map[string]string{
		"request-10.json":   "[\"b1\",\n\"e1\"]",
		"request-10-1.json": "[\"b2\",\n\"e2\"]",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshots mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotTriage_DisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := tracesink.DefaultSnapshotConfig()
	cfg.Timeout = 0.5
	cfg.Dir = dir
	cfg.Enabled = false

	triage := tracesink.NewSnapshotTriage(cfg, tracesink.WithSynchronousDrain())
	triage.Publish(traceEvent(10_000_000_000, 'B'))
	triage.Publish(traceEvent(70_000_000_000, 'E'))
	triage.Wait()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("disabled triage produced %d files", len(entries))
	}
}

func TestFileAsyncSink_PersistsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	sink, err := tracesink.NewFileAsyncSink(path, tracesink.AsyncConfig{
		MaxBatchSize:  7,
		QueueDepth:    2,
		FlushInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewFileAsyncSink() error: %v", err)
	}

	var want []map[string]any
	for i := 0; i < 100; i++ {
		ts := int64(i) * 1_000_000
		sink.Publish(traceEvent(ts, 'i'))
		want = append(want, map[string]any{"ts": float64(ts / 1000), "ph": "i", "pid": "P", "tid": "T"})
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, data)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("persisted events mismatch (-want +got):\n%s", diff)
	}
}

func TestFileAsyncSink_LineMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	sink, err := tracesink.NewFileAsyncSink(path, tracesink.DefaultAsyncConfig(),
		tracesink.WithFileWriterOptions(tracesink.FileWriterOptions{}),
		tracesink.WithFilter(func(tracesink.Record) bool { return true }),
	)
	if err != nil {
		t.Fatal(err)
	}
	sink.Publish(tracesink.Record{Message: "plain"})
	sink.Publish(traceEvent(0, 'B'))
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if diff := cmp.Diff([]string{"plain", payload(0, "B")}, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFileAsyncSink_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := tracesink.NewFileAsyncSink(filepath.Join(blocker, "trace.json"), tracesink.DefaultAsyncConfig()); err == nil {
		t.Error("NewFileAsyncSink() error = nil for a path under a regular file")
	}
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Publish(rec tracesink.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, rec.Message)
}

func TestTee(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	p := tracesink.Tee(a, b)
	p.Publish(tracesink.Record{Message: "x"})
	p.Publish(tracesink.Record{Message: "y"})

	for _, r := range []*recorder{a, b} {
		if diff := cmp.Diff([]string{"x", "y"}, r.msgs); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSharedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := tracesink.NewMetrics(reg)

	dir := t.TempDir()
	sink, err := tracesink.NewFileAsyncSink(filepath.Join(dir, "trace.json"), tracesink.DefaultAsyncConfig(), tracesink.WithMetrics(m))
	if err != nil {
		t.Fatal(err)
	}
	cfg := tracesink.DefaultSnapshotConfig()
	cfg.Dir = dir
	triage := tracesink.NewSnapshotTriage(cfg, tracesink.WithMetrics(m), tracesink.WithSynchronousDrain())

	tracesink.Tee(sink, triage).Publish(traceEvent(0, 'B'))
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var published float64
	for _, mf := range families {
		if mf.GetName() != "tracesink_records_published_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			published += metric.GetCounter().GetValue()
		}
	}
	if published != 2 {
		t.Errorf("published = %v, want 2 (one per sink)", published)
	}
}
