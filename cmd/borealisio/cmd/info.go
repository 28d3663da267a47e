package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/superdarn/borealisio/internal/restructure"
	"github.com/superdarn/borealisio/internal/store"
)

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show a borealis container's structure, version and record count",
	Long: `Info inspects a borealis container without loading its data
tensors and reports the layout, the radar software version it was
written by, and how many records it holds.

Example:
  borealisio info 20190523.0359.51.sas.0.rawacf`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := store.NewLocal(cfg.Store.Compress)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer backend.Close()

	info, err := restructure.Describe(cmd.Context(), backend, args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Structure: %s\n", info.Structure)
	cmd.Printf("Version:   %s\n", info.Version)
	cmd.Printf("Records:   %d\n", info.NumRecords)
	return nil
}
