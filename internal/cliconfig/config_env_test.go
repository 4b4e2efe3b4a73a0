package cliconfig

import (
	"testing"
	"time"

	"github.com/bft-labs/tracesink/internal/config"
	"github.com/bft-labs/tracesink/internal/domain"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		changed map[string]bool
		check   func(*testing.T, Config)
		wantErr bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"TRACESINK_OUTPUT":         "/env/out.json",
				"TRACESINK_METRICS_ADDR":   ":9200",
				"TRACESINK_WATCH":          "1",
				"TRACESINK_MAX_BATCH_SIZE": "32",
				"TRACESINK_FLUSH_INTERVAL": "2s",
				"TRACESINK_MAX_EVENTS":     "500",
				"TRACESINK_TIMEOUT":        "0.25",
				"TRACESINK_SNAPSHOT_DIR":   "/env/snaps",
				"TRACESINK_ENABLED":        "false",
				"TRACESINK_LEVEL":          "severe",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, c Config) {
				if c.Output != "/env/out.json" {
					t.Errorf("Output = %v, want /env/out.json", c.Output)
				}
				if c.MetricsAddr != ":9200" {
					t.Errorf("MetricsAddr = %v, want :9200", c.MetricsAddr)
				}
				if !c.Watch {
					t.Error("Watch = false, want true")
				}
				if c.Async.MaxBatchSize != 32 {
					t.Errorf("MaxBatchSize = %v, want 32", c.Async.MaxBatchSize)
				}
				if c.Async.FlushInterval != 2*time.Second {
					t.Errorf("FlushInterval = %v, want 2s", c.Async.FlushInterval)
				}
				if c.Snapshot.MaxEvents != 500 {
					t.Errorf("MaxEvents = %v, want 500", c.Snapshot.MaxEvents)
				}
				if c.Snapshot.Timeout != 0.25 {
					t.Errorf("Timeout = %v, want 0.25", c.Snapshot.Timeout)
				}
				if c.Snapshot.Dir != "/env/snaps" {
					t.Errorf("Dir = %v, want /env/snaps", c.Snapshot.Dir)
				}
				if c.Snapshot.Enabled {
					t.Error("Enabled = true, want false")
				}
				if c.Snapshot.Level != domain.LevelError {
					t.Errorf("Level = %v, want error", c.Snapshot.Level)
				}
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"TRACESINK_OUTPUT":      "/env/out.json",
				"TRACESINK_QUEUE_DEPTH": "4",
			},
			changed: map[string]bool{"output": true},
			check: func(t *testing.T, c Config) {
				if c.Output != DefaultOutput {
					t.Errorf("Output = %v, want %v", c.Output, DefaultOutput)
				}
				if c.Async.QueueDepth != 4 {
					t.Errorf("QueueDepth = %v, want 4", c.Async.QueueDepth)
				}
			},
		},
		{
			name: "invalid values keep defaults",
			envVars: map[string]string{
				"TRACESINK_QUEUE_DEPTH":    "not-a-number",
				"TRACESINK_MAX_EVENTS":     "0",
				"TRACESINK_TIMEOUT":        "not-a-float",
				"TRACESINK_FLUSH_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, c Config) {
				if c.Async != config.DefaultAsyncConfig() {
					t.Errorf("Async = %+v, want defaults", c.Async)
				}
				if c.Snapshot != config.DefaultSnapshotConfig() {
					t.Errorf("Snapshot = %+v, want defaults", c.Snapshot)
				}
			},
			wantErr: true,
		},
		{
			name:    "empty environment",
			envVars: map[string]string{},
			changed: map[string]bool{},
			check: func(t *testing.T, c Config) {
				if c != DefaultConfig() {
					t.Errorf("config = %+v, want defaults", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			tt.check(t, cfg)
		})
	}
}
