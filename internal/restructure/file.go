package restructure

import (
	"context"
	"fmt"

	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/logger"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/internal/store"
	"github.com/superdarn/borealisio/internal/validate"
	"github.com/superdarn/borealisio/pkg/types"
)

// Restructure reads a borealis file, converts it to the target
// structure, and writes the result. The input structure and version are
// detected from the file itself. A file already in the target structure
// is copied through after validation.
func Restructure(ctx context.Context, backend store.Backend, inPath, outPath string, fileType schema.FileType, target schema.Structure) error {
	if inPath == outPath {
		return &errs.OverwriteError{Path: inPath}
	}
	log := logger.Get("restructure")

	names, err := backend.TopLevelNames(ctx, inPath)
	if err != nil {
		return err
	}
	current := schema.DetectStructure(names)
	log.Info().
		Str("path", inPath).
		Str("file_type", string(fileType)).
		Str("from", string(current)).
		Str("to", string(target)).
		Msg("Restructuring file")

	switch {
	case current == schema.StructureSite && target == schema.StructureArray:
		return siteFileToArray(ctx, backend, inPath, outPath, fileType)
	case current == schema.StructureArray && target == schema.StructureSite:
		return arrayFileToSite(ctx, backend, inPath, outPath, fileType)
	case current == target && current == schema.StructureSite:
		_, rs, err := readSiteChecked(ctx, backend, inPath, fileType)
		if err != nil {
			return err
		}
		return backend.WriteSite(ctx, outPath, rs)
	default:
		_, a, err := readArraysChecked(ctx, backend, inPath, fileType)
		if err != nil {
			return err
		}
		return backend.WriteArrays(ctx, outPath, a)
	}
}

// FileInfo summarizes a borealis container.
type FileInfo struct {
	Structure  schema.Structure
	Version    string
	NumRecords int
}

// Describe reports a container's structure, software version, and
// record count. Array files are inspected field at a time so large
// tensors never load.
func Describe(ctx context.Context, backend store.Backend, path string) (*FileInfo, error) {
	names, err := backend.TopLevelNames(ctx, path)
	if err != nil {
		return nil, err
	}
	if schema.DetectStructure(names) == schema.StructureArray {
		v, err := backend.ReadArrayField(ctx, path, "borealis_git_hash")
		if err != nil {
			return nil, err
		}
		hash, ok := v.(string)
		if !ok {
			return nil, &errs.StructureError{Path: path, Detail: "borealis_git_hash is not a string"}
		}
		version, err := schema.ParseVersion(hash)
		if err != nil {
			return nil, err
		}
		counts, err := backend.ReadArrayField(ctx, path, "num_sequences")
		if err != nil {
			return nil, err
		}
		t, ok := counts.(*types.Tensor)
		if !ok || t.Rank() == 0 {
			return nil, &errs.StructureError{Path: path, Detail: "num_sequences is not an array, cannot count records"}
		}
		return &FileInfo{Structure: schema.StructureArray, Version: version, NumRecords: t.Dim(0)}, nil
	}

	rs, err := backend.ReadSite(ctx, path)
	if err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return nil, &errs.StructureError{Path: path, Detail: "file holds no records"}
	}
	hash, ok := rs.First()["borealis_git_hash"].(string)
	if !ok {
		return nil, &errs.StructureError{Path: path, Detail: "first record has no borealis_git_hash"}
	}
	version, err := schema.ParseVersion(hash)
	if err != nil {
		return nil, err
	}
	return &FileInfo{Structure: schema.StructureSite, Version: version, NumRecords: rs.Len()}, nil
}

// ReadAsSite loads a borealis file as validated site records no matter
// which structure it is stored in.
func ReadAsSite(ctx context.Context, backend store.Backend, path string, fileType schema.FileType) (*types.RecordSet, error) {
	names, err := backend.TopLevelNames(ctx, path)
	if err != nil {
		return nil, err
	}
	if schema.DetectStructure(names) == schema.StructureSite {
		_, rs, err := readSiteChecked(ctx, backend, path, fileType)
		return rs, err
	}
	f, a, err := readArraysChecked(ctx, backend, path, fileType)
	if err != nil {
		return nil, err
	}
	rs, err := ToSite(f, a)
	if err != nil {
		return nil, err
	}
	validate.FixPulsePhaseOffsetSite(rs)
	return rs, nil
}

func siteFileToArray(ctx context.Context, backend store.Backend, inPath, outPath string, fileType schema.FileType) error {
	f, rs, err := readSiteChecked(ctx, backend, inPath, fileType)
	if err != nil {
		return err
	}
	a, err := ToArray(f, rs)
	if err != nil {
		return err
	}
	if err := validate.CheckArrays(f, a); err != nil {
		return fmt.Errorf("restructured output failed validation: %w", err)
	}
	return backend.WriteArrays(ctx, outPath, a)
}

func arrayFileToSite(ctx context.Context, backend store.Backend, inPath, outPath string, fileType schema.FileType) error {
	f, a, err := readArraysChecked(ctx, backend, inPath, fileType)
	if err != nil {
		return err
	}
	rs, err := ToSite(f, a)
	if err != nil {
		return err
	}
	validate.FixPulsePhaseOffsetSite(rs)
	if err := validate.CheckRecords(f, rs); err != nil {
		return fmt.Errorf("restructured output failed validation: %w", err)
	}
	// Site records are appended one group at a time, the way the radar
	// writes them live.
	return rs.Range(func(key string, rec types.Record) error {
		return backend.AppendRecord(ctx, outPath, key, rec)
	})
}

// readSiteChecked loads a site file, resolves its format from the
// provenance field of the first record, and validates every record.
// The pulse_phase_offset repair belongs to array reads only: a site
// file's field is authoritative as written.
func readSiteChecked(ctx context.Context, backend store.Backend, path string, fileType schema.FileType) (*schema.Format, *types.RecordSet, error) {
	rs, err := backend.ReadSite(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if rs.Len() == 0 {
		return nil, nil, &errs.StructureError{Path: path, Detail: "file holds no records"}
	}
	f, err := siteFormat(rs, fileType)
	if err != nil {
		return nil, nil, err
	}
	if err := validate.CheckRecords(f, rs); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, rs, nil
}

// readArraysChecked is the array-structure counterpart.
func readArraysChecked(ctx context.Context, backend store.Backend, path string, fileType schema.FileType) (*schema.Format, types.ArraySet, error) {
	a, err := backend.ReadArrays(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	f, err := arrayFormat(a, fileType)
	if err != nil {
		return nil, nil, err
	}
	validate.FixPulsePhaseOffsetArray(a)
	if err := validate.CheckArrays(f, a); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, a, nil
}

func siteFormat(rs *types.RecordSet, fileType schema.FileType) (*schema.Format, error) {
	hash, ok := rs.First()["borealis_git_hash"].(string)
	if !ok {
		return nil, &errs.StructureError{Detail: "first record has no borealis_git_hash"}
	}
	return schema.LookupRecord(hash, fileType)
}

func arrayFormat(a types.ArraySet, fileType schema.FileType) (*schema.Format, error) {
	hash, ok := a["borealis_git_hash"].(string)
	if !ok {
		return nil, &errs.StructureError{Detail: "file has no top-level borealis_git_hash"}
	}
	return schema.LookupRecord(hash, fileType)
}
