package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "TRACESINK_"

// ApplyEnvConfig applies configuration from environment variables (TRACESINK_*).
// It respects flags that have been explicitly set (changed map).
// Invalid values are skipped and reported together in the returned error.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("input", env("INPUT"), &cfg.Input)
	s.setString("output", env("OUTPUT"), &cfg.Output)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)

	s.setIntFromString("max-batch-size", env("MAX_BATCH_SIZE"), &cfg.Async.MaxBatchSize)
	s.setIntFromString("queue-depth", env("QUEUE_DEPTH"), &cfg.Async.QueueDepth)
	s.setInterval("flush-interval", env("FLUSH_INTERVAL"), &cfg.Async.FlushInterval)

	s.setIntFromString("max-events", env("MAX_EVENTS"), &cfg.Snapshot.MaxEvents)
	s.setSecondsFromString("timeout", env("TIMEOUT"), &cfg.Snapshot.Timeout)
	s.setString("file-path-prefix", env("FILE_PATH_PREFIX"), &cfg.Snapshot.FilePathPrefix)
	s.setString("snapshot-dir", env("SNAPSHOT_DIR"), &cfg.Snapshot.Dir)
	s.setBoolFromString("enabled", env("ENABLED"), &cfg.Snapshot.Enabled)
	s.setLevel("level", env("LEVEL"), &cfg.Snapshot.Level)

	return s.err()
}
