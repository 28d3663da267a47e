package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/superdarn/borealisio/internal/restructure"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/internal/store"
)

var (
	restructureType string
	restructureTo   string
)

var restructureCmd = &cobra.Command{
	Use:   "restructure <input> <output>",
	Short: "Restructure a borealis file between site and array layouts",
	Long: `Restructure reads a borealis container, detects whether it holds
site records or padded arrays, and writes it out in the requested layout.
A file already in the requested layout is copied through unchanged.

Example:
  borealisio restructure --type rawacf --to-structure array in.rawacf.site out.rawacf`,
	Args: cobra.ExactArgs(2),
	RunE: runRestructure,
}

func init() {
	restructureCmd.Flags().StringVar(&restructureType, "type", "",
		"Borealis file type (rawacf, bfiq, antennas_iq, rawrf)")
	restructureCmd.Flags().StringVar(&restructureTo, "to-structure", "",
		"Target structure (site, array)")
	restructureCmd.MarkFlagRequired("type")
	restructureCmd.MarkFlagRequired("to-structure")
	rootCmd.AddCommand(restructureCmd)
}

func runRestructure(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fileType, err := schema.ParseFileType(restructureType)
	if err != nil {
		return err
	}
	target, err := schema.ParseStructure(restructureTo)
	if err != nil {
		return err
	}

	backend, err := store.NewLocal(cfg.Store.Compress)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer backend.Close()

	return restructure.Restructure(cmd.Context(), backend, args[0], args[1], fileType, target)
}
