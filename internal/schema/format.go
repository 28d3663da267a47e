// Package schema holds the format descriptors for borealis data files:
// per-version field tables, dimension functions, and generated-field
// functions. The restructuring and validation engines are driven
// entirely by these tables.
package schema

import (
	"sort"

	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/pkg/types"
)

// FileType identifies one of the borealis data products.
type FileType string

const (
	Rawacf     FileType = "rawacf"
	Bfiq       FileType = "bfiq"
	AntennasIQ FileType = "antennas_iq"
	Rawrf      FileType = "rawrf"
)

// ParseFileType validates a file type string.
func ParseFileType(s string) (FileType, error) {
	switch FileType(s) {
	case Rawacf, Bfiq, AntennasIQ, Rawrf:
		return FileType(s), nil
	}
	return "", &errs.FileTypeError{FileType: s}
}

// ArrayDimFn computes padded-tensor dimensions for one dimension slot
// of an unshared field by scanning the whole record set. Most return a
// single dimension; a few return a multi-dimensional shape at once.
type ArrayDimFn func(rs *types.RecordSet) ([]int, error)

// SiteDimFn computes the true per-record extent for one dimension slot
// of an unshared field when slicing an array file back into records.
type SiteDimFn func(a types.ArraySet, rec int) ([]int, error)

// ArrayGenFn produces an array-only field from the full record set.
type ArrayGenFn func(rs *types.RecordSet) (*types.Tensor, error)

// RecordGenFn produces one element of an array-only field from a
// single record, for streaming appends.
type RecordGenFn func(rec types.Record) (any, error)

// SiteGenFn produces a site-only field for one record from the array
// file data.
type SiteGenFn func(a types.ArraySet, rec int) (any, error)

// Format describes one borealis file type at one version. All maps are
// treated as immutable once built by the registry.
type Format struct {
	FileType FileType
	Version  string

	// Restructureable is false for formats that only exist in site
	// structure.
	Restructureable bool

	// ScalarTypes and TensorTypes together cover every field the
	// format knows about.
	ScalarTypes map[string]types.DType
	TensorTypes map[string]types.DType

	// Shared fields hold one value for the whole file.
	Shared []string

	// DimsArray and DimsSite are keyed by the unshared fields. An
	// empty function list marks a per-record scalar.
	DimsArray map[string][]ArrayDimFn
	DimsSite  map[string][]SiteDimFn

	// ArrayGen produces the array-only fields; ArrayGenIter is its
	// one-record-at-a-time counterpart. SiteGen produces the
	// site-only fields.
	ArrayGen     map[string]ArrayGenFn
	ArrayGenIter map[string]RecordGenFn
	SiteGen      map[string]SiteGenFn

	// FlattenedFields are stored 1-D in site records and carry their
	// true shape in the DimsSource field.
	FlattenedFields []string
	DimsSource      string
}

// FieldDType looks a field up in either type table.
func (f *Format) FieldDType(name string) (types.DType, bool) {
	if d, ok := f.ScalarTypes[name]; ok {
		return d, true
	}
	d, ok := f.TensorTypes[name]
	return d, ok
}

// IsScalarField reports whether the field holds one element per record.
func (f *Format) IsScalarField(name string) bool {
	_, ok := f.ScalarTypes[name]
	return ok
}

// UnsharedFields returns the fields that vary record to record, sorted.
func (f *Format) UnsharedFields() []string {
	return sortedKeys(f.DimsArray)
}

// ArrayOnlyFields returns the fields that exist only in array files.
func (f *Format) ArrayOnlyFields() []string {
	return sortedKeys(f.ArrayGen)
}

// SiteOnlyFields returns the fields that exist only in site records.
func (f *Format) SiteOnlyFields() []string {
	return sortedKeys(f.SiteGen)
}

// SiteFields returns every field a site record must carry. For
// non-restructureable formats this is the full field set.
func (f *Format) SiteFields() []string {
	if !f.Restructureable {
		all := make([]string, 0, len(f.ScalarTypes)+len(f.TensorTypes))
		for k := range f.ScalarTypes {
			all = append(all, k)
		}
		for k := range f.TensorTypes {
			all = append(all, k)
		}
		sort.Strings(all)
		return all
	}
	return mergeSorted(f.Shared, f.UnsharedFields(), f.SiteOnlyFields())
}

// ArrayFields returns every top-level entry an array file must carry.
func (f *Format) ArrayFields() []string {
	return mergeSorted(f.Shared, f.UnsharedFields(), f.ArrayOnlyFields())
}

// ArrayFieldIsTensor reports whether a field is stored as a tensor in
// array structure. Shared scalars stay scalar; everything else gains a
// num_records dimension.
func (f *Format) ArrayFieldIsTensor(name string) bool {
	for _, s := range f.Shared {
		if s == name {
			return !f.IsScalarField(name)
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mergeSorted(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	sort.Strings(out)
	return out
}
