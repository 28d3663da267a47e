package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/superdarn/borealisio/internal/dmap"
	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/logger"
	"github.com/superdarn/borealisio/internal/restructure"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/internal/store"
)

// ConvertFile reads a borealis file, converts its records to the legacy
// wire format, and writes the encoded records to outPath. Array
// structured input is restructured to site records first.
func ConvertFile(ctx context.Context, backend store.Backend, codec dmap.Codec, inPath, outPath string, fileType schema.FileType, sliceID int, scaling float64) error {
	if inPath == outPath {
		return &errs.OverwriteError{Path: inPath}
	}
	log := logger.Get("convert")

	rs, err := restructure.ReadAsSite(ctx, backend, inPath, fileType)
	if err != nil {
		return err
	}
	origin := filepath.Base(inPath)
	recs, wireSchema, err := Convert(rs, fileType, sliceID, origin, scaling)
	if err != nil {
		return err
	}
	data, err := codec.Encode(recs)
	if err != nil {
		return err
	}
	if err := writeAtomic(outPath, data); err != nil {
		return err
	}

	log.Info().
		Str("path", inPath).
		Str("out", outPath).
		Str("format", wireSchema.Name).
		Int("records", len(recs)).
		Msg("Converted file")
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".borealis-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
