package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for borealisio
type Config struct {
	Store   StoreConfig
	Convert ConvertConfig
	Log     LogConfig
}

type StoreConfig struct {
	Compress bool // Write zstd-compressed containers
}

type ConvertConfig struct {
	Scaling float64 // Extra scaling factor applied before int16 quantization
	SliceID int     // Fallback slice id for records without one (-1 = none)
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// Load loads configuration from environment and config file
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("BOREALISIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file (optional)
	v.SetConfigName("borealisio")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/borealisio/")
	v.AddConfigPath("$HOME/.borealisio/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Build config from Viper (which includes defaults + env vars)
	cfg := &Config{
		Store: StoreConfig{
			Compress: v.GetBool("store.compress"),
		},
		Convert: ConvertConfig{
			Scaling: v.GetFloat64("convert.scaling"),
			SliceID: v.GetInt("convert.slice_id"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration values that would otherwise fail deep
// inside a conversion run.
func (c *Config) Validate() error {
	if c.Convert.Scaling <= 0 {
		return fmt.Errorf("convert.scaling must be positive, got %g", c.Convert.Scaling)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Store defaults
	v.SetDefault("store.compress", true)

	// Convert defaults
	v.SetDefault("convert.scaling", 1.0)
	v.SetDefault("convert.slice_id", -1)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
