package config

import (
	"math"
	"testing"
	"time"

	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func TestAsyncConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   AsyncConfig
		want AsyncConfig
	}{
		{
			name: "zero value takes defaults",
			in:   AsyncConfig{},
			want: DefaultAsyncConfig(),
		},
		{
			name: "negative values reset",
			in:   AsyncConfig{MaxBatchSize: -1, QueueDepth: -5, FlushInterval: -time.Second},
			want: DefaultAsyncConfig(),
		},
		{
			name: "valid values kept",
			in:   AsyncConfig{MaxBatchSize: 8, QueueDepth: 2, FlushInterval: 50 * time.Millisecond},
			want: AsyncConfig{MaxBatchSize: 8, QueueDepth: 2, FlushInterval: 50 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Normalize()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshotConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   SnapshotConfig
		want SnapshotConfig
	}{
		{
			name: "negative values reset",
			in:   SnapshotConfig{MaxEvents: -1, Timeout: -1, Enabled: true},
			want: DefaultSnapshotConfig(),
		},
		{
			name: "NaN timeout resets",
			in:   SnapshotConfig{MaxEvents: 10, Timeout: math.NaN(), FilePathPrefix: "slow-"},
			want: SnapshotConfig{MaxEvents: 10, Timeout: DefaultTimeout, FilePathPrefix: "slow-"},
		},
		{
			name: "zero timeout is valid",
			in:   SnapshotConfig{MaxEvents: 10, Timeout: 0, FilePathPrefix: "p", Level: domain.LevelWarn},
			want: SnapshotConfig{MaxEvents: 10, Timeout: 0, FilePathPrefix: "p", Level: domain.LevelWarn},
		},
		{
			name: "out of range level resets",
			in:   SnapshotConfig{MaxEvents: 1, Timeout: 1, FilePathPrefix: "p", Level: domain.Level(42)},
			want: SnapshotConfig{MaxEvents: 1, Timeout: 1, FilePathPrefix: "p", Level: domain.LevelTrace},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Normalize()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSnapshotConfig_OverrideFromDefaults(t *testing.T) {
	cfg := DefaultSnapshotConfig()
	cfg.MaxEvents = 10
	cfg.Normalize()

	want := DefaultSnapshotConfig()
	want.MaxEvents = 10
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Enabled || cfg.Timeout != DefaultTimeout {
		t.Errorf("enabled=%v timeout=%v, want true and %v", cfg.Enabled, cfg.Timeout, DefaultTimeout)
	}
}

func TestSnapshotConfig_ZeroValueKeepsExplicitSettings(t *testing.T) {
	cfg := SnapshotConfig{MaxEvents: 10}
	cfg.Normalize()

	want := SnapshotConfig{MaxEvents: 10, FilePathPrefix: DefaultFilePathPrefix}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}
