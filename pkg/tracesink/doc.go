// Package tracesink provides two sinks for trace-event records.
//
// An AsyncSink moves file I/O off the producing goroutines: records are
// batched, queued and persisted in publish order by a single writer
// goroutine. A SnapshotTriage keeps a rolling window of recent events in
// memory and writes it to disk only when a root Begin/End scope takes longer
// than a threshold, so the slow request arrives with its surrounding context.
//
// Example usage:
//
//	async, err := tracesink.NewFileAsyncSink("trace.json", tracesink.DefaultAsyncConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer async.Close()
//
//	triage := tracesink.NewSnapshotTriage(tracesink.DefaultSnapshotConfig())
//	defer triage.Wait()
//
//	sink := tracesink.Tee(async, triage)
//	sink.Publish(tracesink.NewTraceRecord(tracesink.LevelInfo, payload, ts, 'B', pid, tid))
package tracesink
