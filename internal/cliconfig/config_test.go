package cliconfig

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/tracesink/internal/config"
	"github.com/bft-labs/tracesink/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Input != StdinInput {
		t.Errorf("Input = %v, want %v", cfg.Input, StdinInput)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %v, want %v", cfg.Output, DefaultOutput)
	}
	if cfg.Async != config.DefaultAsyncConfig() {
		t.Errorf("Async = %+v, want defaults", cfg.Async)
	}
	if cfg.Snapshot != config.DefaultSnapshotConfig() {
		t.Errorf("Snapshot = %+v, want defaults", cfg.Snapshot)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "missing output",
			mutate:  func(c *Config) { c.Output = " " },
			wantErr: true,
		},
		{
			name:   "empty input means stdin",
			mutate: func(c *Config) { c.Input = "" },
			check: func(t *testing.T, c Config) {
				if c.Input != StdinInput {
					t.Errorf("Input = %v, want %v", c.Input, StdinInput)
				}
			},
		},
		{
			name: "invalid component values fall back",
			mutate: func(c *Config) {
				c.Async.QueueDepth = -3
				c.Snapshot.Timeout = math.NaN()
			},
			check: func(t *testing.T, c Config) {
				if c.Async.QueueDepth != config.DefaultQueueDepth {
					t.Errorf("QueueDepth = %v, want %v", c.Async.QueueDepth, config.DefaultQueueDepth)
				}
				if c.Snapshot.Timeout != config.DefaultTimeout {
					t.Errorf("Timeout = %v, want %v", c.Snapshot.Timeout, config.DefaultTimeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfigSetter_RespectsChangedFlags(t *testing.T) {
	s := newConfigSetter(map[string]bool{"output": true, "max-batch-size": true})

	out := "flag.json"
	batch := 8
	s.setString("output", "file.json", &out)
	s.setInt("max-batch-size", 64, &batch)

	if out != "flag.json" {
		t.Errorf("output = %v, want flag.json", out)
	}
	if batch != 8 {
		t.Errorf("max-batch-size = %v, want 8", batch)
	}
	if err := s.err(); err != nil {
		t.Errorf("err() = %v, want nil", err)
	}
}

func TestConfigSetter_SetInterval(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    time.Duration
		wantErr bool
	}{
		{name: "duration string", value: "250ms", want: 250 * time.Millisecond},
		{name: "integer string", value: "500", want: 500 * time.Millisecond},
		{name: "toml integer", value: int64(2000), want: 2 * time.Second},
		{name: "unset", value: nil, want: time.Second},
		{name: "empty string", value: "", want: time.Second},
		{name: "garbage", value: "soon", want: time.Second, wantErr: true},
		{name: "zero", value: int64(0), want: time.Second, wantErr: true},
		{name: "negative", value: "-5s", want: time.Second, wantErr: true},
		{name: "wrong type", value: 1.5, want: time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newConfigSetter(nil)
			got := time.Second
			s.setInterval("flush-interval", tt.value, &got)
			if got != tt.want {
				t.Errorf("interval = %v, want %v", got, tt.want)
			}
			if (s.err() != nil) != tt.wantErr {
				t.Errorf("err() = %v, wantErr %v", s.err(), tt.wantErr)
			}
		})
	}
}

func TestConfigSetter_CollectsAllErrors(t *testing.T) {
	s := newConfigSetter(nil)

	var n int
	var secs float64
	var lvl domain.Level
	s.setIntFromString("queue-depth", "many", &n)
	s.setSecondsFromString("timeout", "-1", &secs)
	s.setLevel("level", "loud", &lvl)

	err := s.err()
	if err == nil {
		t.Fatal("err() = nil, want joined errors")
	}
	for _, flag := range []string{"queue-depth", "timeout", "level"} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("err() = %q, missing %s", err, flag)
		}
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 3 {
		t.Errorf("err() does not carry three errors: %v", err)
	}
}

func TestLevelFlag(t *testing.T) {
	lvl := domain.LevelTrace
	v := LevelFlag(&lvl)

	if err := v.Set("WARNING"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if lvl != domain.LevelWarn {
		t.Errorf("level = %v, want warn", lvl)
	}
	if v.String() != "warn" {
		t.Errorf("String() = %v, want warn", v.String())
	}
	if err := v.Set("loud"); err == nil {
		t.Error("Set(loud) error = nil, want error")
	}
	if v.Type() != "level" {
		t.Errorf("Type() = %v, want level", v.Type())
	}
}
