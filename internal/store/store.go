// Package store reads and writes borealis container files. A container
// is a msgpack envelope holding either ordered site records or the flat
// array fields, optionally wrapped in a zstd frame.
package store

import (
	"context"

	"github.com/superdarn/borealisio/pkg/types"
)

// Backend is the storage interface the restructuring and conversion
// pipelines run against.
type Backend interface {
	// ReadSite loads a site-structured container, preserving record
	// order.
	ReadSite(ctx context.Context, path string) (*types.RecordSet, error)

	// ReadArrays loads an array-structured container.
	ReadArrays(ctx context.Context, path string) (types.ArraySet, error)

	// ReadArrayField loads a single field from an array container.
	ReadArrayField(ctx context.Context, path, field string) (any, error)

	// WriteSite stores a record set as a site-structured container.
	WriteSite(ctx context.Context, path string, rs *types.RecordSet) error

	// WriteArrays stores an array set as an array-structured container.
	WriteArrays(ctx context.Context, path string, a types.ArraySet) error

	// AppendRecord adds one record to a site container, creating the
	// container if it does not exist.
	AppendRecord(ctx context.Context, path, key string, rec types.Record) error

	// TopLevelNames returns the container's top entries without
	// decoding field data: record keys for site files, field names for
	// array files. Used for structure sniffing.
	TopLevelNames(ctx context.Context, path string) ([]string, error)

	// Exists reports whether a container is present at the path.
	Exists(ctx context.Context, path string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}
