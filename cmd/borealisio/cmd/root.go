package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/superdarn/borealisio/internal/config"
	"github.com/superdarn/borealisio/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	logLevel  string
	logFormat string
	compress  bool
)

var rootCmd = &cobra.Command{
	Use:   "borealisio",
	Short: "Borealis radar data restructuring and conversion",
	Long: `A CLI tool for working with SuperDARN Borealis data containers.

Commands:
  - restructure: convert files between site and array layouts
  - convert: produce legacy DMap files (iqdat, rawacf) from borealis data`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, console)")
	rootCmd.PersistentFlags().BoolVar(&compress, "compress", true,
		"Write zstd-compressed containers")
}

// loadConfig loads the configuration, applies CLI overrides and
// initializes the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if cmd.Flags().Changed("compress") {
		cfg.Store.Compress = compress
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
