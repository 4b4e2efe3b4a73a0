package cliconfig

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/tracesink/internal/config"
	"github.com/bft-labs/tracesink/internal/domain"
)

// StdinInput selects standard input as the record source.
const StdinInput = "-"

// DefaultOutput is the trace-event file written by the async sink.
const DefaultOutput = "trace.json"

// Config holds CLI configuration for tracesink.
type Config struct {
	Input       string
	Output      string
	LogLevel    string
	MetricsAddr string
	Watch       bool

	Async    config.AsyncConfig
	Snapshot config.SnapshotConfig
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Input:    StdinInput,
		Output:   DefaultOutput,
		LogLevel: "info",
		Async:    config.DefaultAsyncConfig(),
		Snapshot: config.DefaultSnapshotConfig(),
	}
}

// Validate checks the configuration for errors and resets invalid component
// values to their defaults.
func (c *Config) Validate() error {
	if c.Input == "" {
		c.Input = StdinInput
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Async.Normalize()
	c.Snapshot.Normalize()
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
// Invalid values are recorded and skipped, leaving the destination untouched.
type configSetter struct {
	changed map[string]bool
	errs    []error
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// err returns every recorded problem joined, or nil.
func (s *configSetter) err() error {
	return errors.Join(s.errs...)
}

func (s *configSetter) invalid(flag string, err error) {
	s.errs = append(s.errs, fmt.Errorf("ignore %s: %w", flag, err))
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if set and flag not changed.
// Zero means unset; negative values are rejected.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value == 0 || s.changed[flag] {
		return
	}
	if value < 0 {
		s.invalid(flag, fmt.Errorf("%d is not positive", value))
		return
	}
	*dst = value
}

// setSeconds sets a non-negative seconds value from a pointer.
func (s *configSetter) setSeconds(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	if math.IsNaN(*value) || *value < 0 {
		s.invalid(flag, fmt.Errorf("%v is not a non-negative number of seconds", *value))
		return
	}
	*dst = *value
}

// setInterval sets a duration from a Go duration string or an integer
// number of milliseconds.
func (s *configSetter) setInterval(flag string, value any, dst *time.Duration) {
	if value == nil || s.changed[flag] {
		return
	}

	var d time.Duration
	switch v := value.(type) {
	case string:
		if v == "" {
			return
		}
		var err error
		if d, err = parseInterval(v); err != nil {
			s.invalid(flag, err)
			return
		}
	case int64:
		d = time.Duration(v) * time.Millisecond
	case int:
		d = time.Duration(v) * time.Millisecond
	default:
		s.invalid(flag, fmt.Errorf("unsupported type %T", value))
		return
	}

	if d <= 0 {
		s.invalid(flag, fmt.Errorf("%v is not positive", d))
		return
	}
	*dst = d
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setLevel parses and sets a severity level.
func (s *configSetter) setLevel(flag, value string, dst *domain.Level) {
	if value == "" || s.changed[flag] {
		return
	}
	l, err := domain.ParseLevel(value)
	if err != nil {
		s.invalid(flag, err)
		return
	}
	*dst = l
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) {
	if value == "" || s.changed[flag] {
		return
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		s.invalid(flag, err)
		return
	}
	if i <= 0 {
		s.invalid(flag, fmt.Errorf("%d is not positive", i))
		return
	}
	*dst = i
}

// setSecondsFromString parses a string to float64 seconds.
// Used for environment variables that come as strings.
func (s *configSetter) setSecondsFromString(flag, value string, dst *float64) {
	if value == "" || s.changed[flag] {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		s.invalid(flag, err)
		return
	}
	s.setSeconds(flag, &f, dst)
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// parseInterval accepts "250ms"-style durations and bare integer milliseconds.
func parseInterval(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}
