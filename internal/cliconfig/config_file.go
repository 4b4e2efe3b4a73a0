package cliconfig

import (
	"os"
	"path/filepath"

	"github.com/bft-labs/tracesink/internal/config"
	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config in a TOML friendly shape.
type FileConfig struct {
	Input       string       `toml:"input"`
	Output      string       `toml:"output"`
	LogLevel    string       `toml:"log_level"`
	MetricsAddr string       `toml:"metrics_addr"`
	Watch       *bool        `toml:"watch"`
	Async       AsyncFile    `toml:"async"`
	Snapshot    SnapshotFile `toml:"snapshot"`
}

// AsyncFile is the [async] table.
type AsyncFile struct {
	MaxBatchSize int `toml:"max_batch_size"`
	QueueDepth   int `toml:"queue_depth"`
	// FlushInterval is a duration string ("250ms") or integer milliseconds.
	FlushInterval any `toml:"flush_interval"`
}

// SnapshotFile is the [snapshot] table.
type SnapshotFile struct {
	MaxEvents      int      `toml:"max_events"`
	Timeout        *float64 `toml:"timeout"`
	FilePathPrefix string   `toml:"file_path_prefix"`
	Dir            string   `toml:"dir"`
	Enabled        *bool    `toml:"enabled"`
	Level          string   `toml:"level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.tracesink/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".tracesink", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
// Invalid values are skipped and reported together in the returned error;
// every valid value is still applied.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("input", fc.Input, &cfg.Input)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	s.setInt("max-batch-size", fc.Async.MaxBatchSize, &cfg.Async.MaxBatchSize)
	s.setInt("queue-depth", fc.Async.QueueDepth, &cfg.Async.QueueDepth)
	s.setInterval("flush-interval", fc.Async.FlushInterval, &cfg.Async.FlushInterval)

	applySnapshotFile(s, &cfg.Snapshot, fc.Snapshot)

	return s.err()
}

func applySnapshotFile(s *configSetter, dst *config.SnapshotConfig, sf SnapshotFile) {
	s.setInt("max-events", sf.MaxEvents, &dst.MaxEvents)
	s.setSeconds("timeout", sf.Timeout, &dst.Timeout)
	s.setString("file-path-prefix", sf.FilePathPrefix, &dst.FilePathPrefix)
	s.setString("snapshot-dir", sf.Dir, &dst.Dir)
	s.setBool("enabled", sf.Enabled, &dst.Enabled)
	s.setLevel("level", sf.Level, &dst.Level)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
