// Package config holds the construction-time configuration of the two sinks.
//
// Every field has a documented default. Normalize resets out-of-range values
// to those defaults instead of failing, so a bad setting degrades to the
// default behaviour rather than disabling tracing.
package config

import (
	"time"

	"github.com/bft-labs/tracesink/internal/domain"
)

// Defaults for AsyncConfig.
const (
	DefaultMaxBatchSize  = 1024
	DefaultQueueDepth    = 10000
	DefaultFlushInterval = 1000 * time.Millisecond
)

// Defaults for SnapshotConfig.
const (
	DefaultMaxEvents      = 1000000
	DefaultTimeout        = 30.0
	DefaultFilePathPrefix = "request-"
)

// AsyncConfig configures an AsyncSink.
type AsyncConfig struct {
	// MaxBatchSize is the number of records per batch before a forced submit.
	MaxBatchSize int

	// QueueDepth is the capacity of the bounded batch queue.
	QueueDepth int

	// FlushInterval is the period of the forced-flush ticker.
	FlushInterval time.Duration
}

// DefaultAsyncConfig returns an AsyncConfig with default values.
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		MaxBatchSize:  DefaultMaxBatchSize,
		QueueDepth:    DefaultQueueDepth,
		FlushInterval: DefaultFlushInterval,
	}
}

// Normalize resets invalid values to their defaults.
func (c *AsyncConfig) Normalize() {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
}

// SnapshotConfig configures a SnapshotTriage.
//
// Start from DefaultSnapshotConfig and override fields. Normalize only repairs
// invalid values: a false Enabled and a zero Timeout are valid settings and are
// kept, so a zero-value SnapshotConfig yields a disabled triage that would
// drain on every root scope.
type SnapshotConfig struct {
	// MaxEvents is the ring buffer capacity.
	MaxEvents int

	// Timeout is the root-scope duration, in seconds, above which a drain is triggered.
	Timeout float64

	// FilePathPrefix prefixes the first-event timestamp in drained file names.
	FilePathPrefix string

	// Dir is the directory drained files are written to. Empty means the
	// working directory.
	Dir string

	// Enabled toggles triage at runtime.
	Enabled bool

	// Level is the minimum severity of records that are triaged.
	Level domain.Level
}

// DefaultSnapshotConfig returns a SnapshotConfig with default values.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		MaxEvents:      DefaultMaxEvents,
		Timeout:        DefaultTimeout,
		FilePathPrefix: DefaultFilePathPrefix,
		Enabled:        true,
		Level:          domain.LevelTrace,
	}
}

// Normalize resets invalid values to their defaults.
func (c *SnapshotConfig) Normalize() {
	if c.MaxEvents <= 0 {
		c.MaxEvents = DefaultMaxEvents
	}
	// NaN fails both comparisons.
	if !(c.Timeout >= 0) {
		c.Timeout = DefaultTimeout
	}
	if c.FilePathPrefix == "" {
		c.FilePathPrefix = DefaultFilePathPrefix
	}
	if c.Level < domain.LevelTrace || c.Level > domain.LevelError {
		c.Level = domain.LevelTrace
	}
}
