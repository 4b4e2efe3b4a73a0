package cliconfig

import (
	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/spf13/pflag"
)

// levelValue adapts a domain.Level to pflag.
type levelValue struct {
	dst *domain.Level
}

// LevelFlag returns a pflag.Value that parses level names into dst.
func LevelFlag(dst *domain.Level) pflag.Value {
	return &levelValue{dst: dst}
}

func (v *levelValue) String() string {
	if v.dst == nil {
		return domain.LevelTrace.String()
	}
	return v.dst.String()
}

func (v *levelValue) Set(s string) error {
	l, err := domain.ParseLevel(s)
	if err != nil {
		return err
	}
	*v.dst = l
	return nil
}

func (v *levelValue) Type() string {
	return "level"
}
