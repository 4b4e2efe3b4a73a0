// Package metrics exposes Prometheus counters for the sinks.
//
// A nil *Metrics is valid and records nothing, so sinks built without
// metrics pay a single nil check per update.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tracesink"

// Metrics holds the collectors shared by AsyncSink and SnapshotTriage.
type Metrics struct {
	published      *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	written        prometheus.Counter
	batches        prometheus.Counter
	ioErrors       *prometheus.CounterVec
	drains         prometheus.Counter
	orphanEnds     prometheus.Counter
	bufferedEvents prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered, which is useful in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Records accepted by a sink.",
		}, []string{"sink"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records rejected by a sink, by reason.",
		}, []string{"sink", "reason"}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "async",
			Name:      "records_written_total",
			Help:      "Records handed to the underlying writer.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "async",
			Name:      "batches_submitted_total",
			Help:      "Batches submitted to the write queue.",
		}),
		ioErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "io_errors_total",
			Help:      "Swallowed I/O failures, by operation.",
		}, []string{"op"}),
		drains: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "drains_total",
			Help:      "Snapshot drains triggered by slow root scopes.",
		}),
		orphanEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "orphan_ends_total",
			Help:      "End events with no open Begin on their scope stack.",
		}),
		bufferedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "buffered_events",
			Help:      "Events currently held in the snapshot ring buffer.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.published,
			m.dropped,
			m.written,
			m.batches,
			m.ioErrors,
			m.drains,
			m.orphanEnds,
			m.bufferedEvents,
		)
	}
	return m
}

// Published counts a record accepted by sink.
func (m *Metrics) Published(sink string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(sink).Inc()
}

// Dropped counts a record rejected by sink for reason.
func (m *Metrics) Dropped(sink, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(sink, reason).Inc()
}

// Written counts records handed to the underlying writer.
func (m *Metrics) Written(n int) {
	if m == nil {
		return
	}
	m.written.Add(float64(n))
}

// BatchSubmitted counts a batch sent to the write queue.
func (m *Metrics) BatchSubmitted() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

// IOError counts a swallowed I/O failure for op.
func (m *Metrics) IOError(op string) {
	if m == nil {
		return
	}
	m.ioErrors.WithLabelValues(op).Inc()
}

// Drain counts a triggered snapshot drain.
func (m *Metrics) Drain() {
	if m == nil {
		return
	}
	m.drains.Inc()
}

// OrphanEnd counts an End event with no matching Begin.
func (m *Metrics) OrphanEnd() {
	if m == nil {
		return
	}
	m.orphanEnds.Inc()
}

// SetBuffered records the current ring buffer size.
func (m *Metrics) SetBuffered(n int) {
	if m == nil {
		return
	}
	m.bufferedEvents.Set(float64(n))
}
