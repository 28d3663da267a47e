// Package errs defines the error types surfaced by the borealisio
// readers, writers, and restructuring engine. Callers match on these
// with errors.As to distinguish malformed data from unsupported data.
package errs

import (
	"fmt"
	"sort"
	"strings"
)

// FileTypeError reports a file type outside the known set.
type FileTypeError struct {
	FileType string
}

func (e *FileTypeError) Error() string {
	return fmt.Sprintf("unknown file type %q: expected rawacf, bfiq, antennas_iq, or rawrf", e.FileType)
}

// StructureError reports a file whose layout does not match either the
// site or the array structure, or whose structure cannot be determined.
type StructureError struct {
	Path   string
	Detail string
}

func (e *StructureError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("bad file structure: %s", e.Detail)
	}
	return fmt.Sprintf("bad file structure in %s: %s", e.Path, e.Detail)
}

// UnsupportedVersionError reports a borealis version with no registered
// format tables.
type UnsupportedVersionError struct {
	Version   string
	Supported []string
	Detail    string
}

func (e *UnsupportedVersionError) Error() string {
	msg := fmt.Sprintf("unsupported borealis version %q: supported versions are %s",
		e.Version, strings.Join(e.Supported, ", "))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// FieldMissingError reports required fields absent from a record or
// array file.
type FieldMissingError struct {
	RecordName string
	Fields     []string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("record %s missing required fields: %s",
		e.RecordName, strings.Join(sorted(e.Fields), ", "))
}

// ExtraFieldError reports unrecognized fields in a record or array
// file.
type ExtraFieldError struct {
	RecordName string
	Fields     []string
}

func (e *ExtraFieldError) Error() string {
	return fmt.Sprintf("record %s has unrecognized fields: %s",
		e.RecordName, strings.Join(sorted(e.Fields), ", "))
}

// TypeMismatchError reports fields whose element type does not match
// the format tables.
type TypeMismatchError struct {
	RecordName string
	// Mismatches maps field name to a human readable description of
	// the expected and found types.
	Mismatches map[string]string
}

func (e *TypeMismatchError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, f := range sortedKeys(e.Mismatches) {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Mismatches[f]))
	}
	return fmt.Sprintf("record %s has wrong field types: %s",
		e.RecordName, strings.Join(parts, "; "))
}

// RecordCountError reports an array file whose unshared tensors
// disagree on the number of records.
type RecordCountError struct {
	Field    string
	Expected int
	Found    int
}

func (e *RecordCountError) Error() string {
	return fmt.Sprintf("field %s has %d records, expected %d", e.Field, e.Found, e.Expected)
}

// BadRecordsError aggregates per-record validation failures across an
// entire site file. Validation never stops at the first bad record.
type BadRecordsError struct {
	// Each map is keyed by record name.
	Missing  map[string]error
	Extra    map[string]error
	Mismatch map[string]error
}

func (e *BadRecordsError) Error() string {
	n := len(e.Missing) + len(e.Extra) + len(e.Mismatch)
	var b strings.Builder
	fmt.Fprintf(&b, "%d bad records:", n)
	writeGroup(&b, "missing fields", e.Missing)
	writeGroup(&b, "extra fields", e.Extra)
	writeGroup(&b, "type mismatches", e.Mismatch)
	return b.String()
}

// Empty reports whether no record failed.
func (e *BadRecordsError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Extra) == 0 && len(e.Mismatch) == 0
}

func writeGroup(b *strings.Builder, label string, m map[string]error) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s:", label)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "\n    %s: %v", k, m[k])
	}
}

// RestructureError wraps a failure while converting between site and
// array structure.
type RestructureError struct {
	Op  string
	Err error
}

func (e *RestructureError) Error() string {
	return fmt.Sprintf("restructure %s: %v", e.Op, e.Err)
}

func (e *RestructureError) Unwrap() error { return e.Err }

// ConversionTypesError reports a source/target pair the converter does
// not support.
type ConversionTypesError struct {
	Source string
	Target string
}

func (e *ConversionTypesError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: supported conversions are bfiq to iqdat and rawacf to rawacf",
		e.Source, e.Target)
}

// ConversionPreconditionError reports source data that violates an
// assumption the wire format conversion depends on.
type ConversionPreconditionError struct {
	RecordName string
	Field      string
	Detail     string
}

func (e *ConversionPreconditionError) Error() string {
	return fmt.Sprintf("record %s: field %s: %s", e.RecordName, e.Field, e.Detail)
}

// OverwriteError reports a conversion whose output path equals its
// input path.
type OverwriteError struct {
	Path string
}

func (e *OverwriteError) Error() string {
	return fmt.Sprintf("output file %s would overwrite the input file", e.Path)
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
