package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/superdarn/borealisio/internal/convert"
	"github.com/superdarn/borealisio/internal/dmap"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/internal/store"
)

var (
	convertType    string
	convertSlice   int
	convertScaling float64
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a borealis file to the legacy DMap format",
	Long: `Convert reads a borealis container (site or array structured) and
writes the equivalent legacy DMap file. Bfiq files become iqdat, rawacf
files keep their type. Each site record fans out into one DMap record
per beam.

Example:
  borealisio convert --type bfiq in.bfiq out.iqdat`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertType, "type", "",
		"Borealis file type (rawacf, bfiq)")
	convertCmd.Flags().IntVar(&convertSlice, "slice-id", -1,
		"Fallback slice id for records without one")
	convertCmd.Flags().Float64Var(&convertScaling, "scaling", 0,
		"Extra scaling factor applied before int16 quantization")
	convertCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fileType, err := schema.ParseFileType(convertType)
	if err != nil {
		return err
	}

	sliceID := cfg.Convert.SliceID
	if cmd.Flags().Changed("slice-id") {
		sliceID = convertSlice
	}
	scaling := cfg.Convert.Scaling
	if cmd.Flags().Changed("scaling") {
		scaling = convertScaling
	}

	backend, err := store.NewLocal(cfg.Store.Compress)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer backend.Close()

	return convert.ConvertFile(cmd.Context(), backend, dmap.MsgpackCodec{},
		args[0], args[1], fileType, sliceID, scaling)
}
