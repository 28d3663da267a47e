package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/superdarn/borealisio/internal/logger"
	"github.com/superdarn/borealisio/pkg/types"
)

// zstd frame magic, little-endian on disk.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Local stores containers as files on the local filesystem. Writes are
// atomic: data goes to a temp file in the target directory and is
// renamed into place. Reads accept both plain and zstd-framed
// containers regardless of the compression setting.
type Local struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	logger   zerolog.Logger
}

// NewLocal creates a local filesystem backend. When compress is set,
// written containers are wrapped in a zstd frame.
func NewLocal(compress bool) (*Local, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Local{
		compress: compress,
		enc:      enc,
		dec:      dec,
		logger:   logger.Get("local-store"),
	}, nil
}

func (l *Local) ReadSite(ctx context.Context, path string) (*types.RecordSet, error) {
	env, err := l.readEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Structure != structureSite {
		return nil, fmt.Errorf("%s: container is %s structured, not site", path, env.Structure)
	}
	if len(env.Keys) != len(env.Records) {
		return nil, fmt.Errorf("%s: %d keys for %d records", path, len(env.Keys), len(env.Records))
	}
	rs := types.NewRecordSet()
	for i, key := range env.Keys {
		rec, err := decodeRecord(env.Records[i])
		if err != nil {
			return nil, fmt.Errorf("%s: record %s: %w", path, key, err)
		}
		rs.Set(key, rec)
	}
	return rs, nil
}

func (l *Local) ReadArrays(ctx context.Context, path string) (types.ArraySet, error) {
	env, err := l.readEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Structure != structureArray {
		return nil, fmt.Errorf("%s: container is %s structured, not array", path, env.Structure)
	}
	rec, err := decodeRecord(env.Fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return types.ArraySet(rec), nil
}

func (l *Local) ReadArrayField(ctx context.Context, path, field string) (any, error) {
	env, err := l.readEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Structure != structureArray {
		return nil, fmt.Errorf("%s: container is %s structured, not array", path, env.Structure)
	}
	wv, ok := env.Fields[field]
	if !ok {
		return nil, fmt.Errorf("%s: no field %s", path, field)
	}
	v, err := decodeValue(wv)
	if err != nil {
		return nil, fmt.Errorf("%s: field %s: %w", path, field, err)
	}
	return v, nil
}

func (l *Local) WriteSite(ctx context.Context, path string, rs *types.RecordSet) error {
	env := &envelope{Structure: structureSite}
	err := rs.Range(func(key string, rec types.Record) error {
		m, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("record %s: %w", key, err)
		}
		env.Keys = append(env.Keys, key)
		env.Records = append(env.Records, m)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return l.writeEnvelope(ctx, path, env)
}

func (l *Local) WriteArrays(ctx context.Context, path string, a types.ArraySet) error {
	fields, err := encodeRecord(types.Record(a))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return l.writeEnvelope(ctx, path, &envelope{Structure: structureArray, Fields: fields})
}

func (l *Local) AppendRecord(ctx context.Context, path, key string, rec types.Record) error {
	exists, err := l.Exists(ctx, path)
	if err != nil {
		return err
	}
	rs := types.NewRecordSet()
	if exists {
		rs, err = l.ReadSite(ctx, path)
		if err != nil {
			return err
		}
	}
	rs.Set(key, rec)
	return l.WriteSite(ctx, path, rs)
}

func (l *Local) TopLevelNames(ctx context.Context, path string) ([]string, error) {
	env, err := l.readEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Structure == structureSite {
		return append([]string(nil), env.Keys...), nil
	}
	names := make([]string, 0, len(env.Fields))
	for name := range env.Fields {
		if reservedKey(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

func (l *Local) Close() error {
	l.enc.Close()
	l.dec.Close()
	return nil
}

func (l *Local) readEnvelope(ctx context.Context, path string) (*envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		data, err = l.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

func (l *Local) writeEnvelope(ctx context.Context, path string, env *envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if l.compress {
		data = l.enc.EncodeAll(data, nil)
	}

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

	l.logger.Debug().
		Str("path", path).
		Int("size", len(data)).
		Bool("compressed", l.compress).
		Msg("Wrote container")
	return nil
}
