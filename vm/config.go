package vm

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// SwitchMode selects the tableswitch matching strategy.
type SwitchMode string

const (
	// SwitchDirect indexes the jump table in O(1).
	SwitchDirect SwitchMode = "direct"
	// SwitchSpeculative scans the key range linearly, first keys first.
	SwitchSpeculative SwitchMode = "speculative"
)

// Config is the runtime configuration, loaded from kava.toml.
type Config struct {
	// Mode picks the tableswitch strategy. Both agree on results.
	Mode SwitchMode `toml:"mode"`
	// MaxFrames bounds guest call depth; exceeding it raises the guest
	// stack-overflow condition.
	MaxFrames int `toml:"max_frames"`
	// TraceExecution logs each executed instruction at debug level.
	TraceExecution bool `toml:"trace_execution"`
	// StorePath locates the sqlite content store; empty disables it.
	StorePath string `toml:"store_path"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Mode:      SwitchDirect,
		MaxFrames: 2048,
	}
}

// LoadConfig reads path as TOML over the defaults. A missing file yields
// the defaults without error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mode {
	case SwitchDirect, SwitchSpeculative:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.MaxFrames <= 0 {
		return fmt.Errorf("max_frames must be positive, got %d", c.MaxFrames)
	}
	return nil
}
