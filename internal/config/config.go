// Package config holds the ratebench configuration.
// Values are layered by viper: defaults, optional YAML file,
// RATEBENCH_* environment variables and finally command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RATEBENCH_MAX_RPS.
const EnvPrefix = "RATEBENCH"

const (
	FormatText  = "text"
	FormatTable = "table"
)

// Config is the decoded benchmark configuration.
type Config struct {
	MaxRPS      int           `mapstructure:"max_rps"`
	Resolution  int           `mapstructure:"resolution"`
	Workers     int           `mapstructure:"workers"`
	Calls       int           `mapstructure:"calls"`
	MaxPause    time.Duration `mapstructure:"max_pause"`
	Bucket      time.Duration `mapstructure:"bucket"`
	Format      string        `mapstructure:"format"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Verbose     bool          `mapstructure:"verbose"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("max_rps", 5000)
	v.SetDefault("resolution", 1000)
	v.SetDefault("workers", 500)
	v.SetDefault("calls", 1000)
	v.SetDefault("max_pause", "50ms")
	v.SetDefault("bucket", "100ms")
	v.SetDefault("format", FormatText)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("verbose", false)
}

// BindEnv makes v look up RATEBENCH_* variables for every key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	hook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the library would not catch itself.
func (c *Config) Validate() error {
	if c.MaxRPS < 0 {
		return fmt.Errorf("max_rps must be zero or positive (given: %d)", c.MaxRPS)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive (given: %d)", c.Workers)
	}
	if c.Calls < 0 {
		return fmt.Errorf("calls must be zero or positive (given: %d)", c.Calls)
	}
	if c.MaxPause < 0 {
		return fmt.Errorf("max_pause must be zero or positive (given: %v)", c.MaxPause)
	}
	if c.Bucket <= 0 {
		return fmt.Errorf("bucket must be positive (given: %v)", c.Bucket)
	}
	switch c.Format {
	case FormatText, FormatTable:
	default:
		return fmt.Errorf("unsupported output format: %q", c.Format)
	}
	return nil
}
