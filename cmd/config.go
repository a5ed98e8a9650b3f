package cmd

import (
	"errors"
	"fmt"

	"github.com/beanboi7/chyp8/emu/runner"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/viper"
)

const (
	keyClock   = "clock"
	keyRefresh = "refresh"
	keyDisplay = "display"
	keyScale   = "scale"
	keyStrict  = "strict"
	keyTrace   = "trace"
	keyDebug   = "debug"
	keyQuiet   = "quiet"

	displayWindow   = "window"
	displayTerminal = "terminal"
)

var errInvalidConfig = errors.New("invalid configuration")

// Config holds the merged flag, environment and config file settings.
type Config struct {
	Clock   int     `mapstructure:"clock"`
	Refresh int     `mapstructure:"refresh"`
	Display string  `mapstructure:"display"`
	Scale   float64 `mapstructure:"scale"`
	Strict  bool    `mapstructure:"strict"`
	Trace   bool    `mapstructure:"trace"`
	Debug   bool    `mapstructure:"debug"`
	Quiet   bool    `mapstructure:"quiet"`
}

func setDefaults() {
	viper.SetDefault(keyClock, 700)
	viper.SetDefault(keyRefresh, 60)
	viper.SetDefault(keyDisplay, displayWindow)
	viper.SetDefault(keyScale, 10.0)
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Clock <= 0 || c.Clock > runner.MaxRate:
		return fmt.Errorf("%w: clock must be between 1 and %d, got %d", errInvalidConfig, runner.MaxRate, c.Clock)
	case c.Refresh <= 0 || c.Refresh > runner.MaxRate:
		return fmt.Errorf("%w: refresh must be between 1 and %d, got %d", errInvalidConfig, runner.MaxRate, c.Refresh)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive, got %g", errInvalidConfig, c.Scale)
	case c.Display != displayWindow && c.Display != displayTerminal:
		return fmt.Errorf("%w: unsupported display %q", errInvalidConfig, c.Display)
	}
	return nil
}

// newLogger creates a logger honouring the debug and quiet settings.
func newLogger(c Config) *log.Logger {
	cfg := log.DefaultConfig()
	if c.Debug {
		cfg.Level = log.DebugLevel
	} else if c.Quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
