// Package validate checks site records and array files against their
// format descriptors before restructuring or conversion touches them.
package validate

import (
	"errors"
	"fmt"

	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/pkg/types"
)

// CheckRecords validates every record of a site file against the
// format's field tables. Bad records are collected rather than failing
// on the first, so the caller gets one error naming everything wrong
// with the file. A record missing every expected field aborts
// immediately with a StructureError, since that points at a misread
// file rather than a few corrupt records.
func CheckRecords(f *schema.Format, rs *types.RecordSet) error {
	expected := f.SiteFields()

	bad := &errs.BadRecordsError{
		Missing:  map[string]error{},
		Extra:    map[string]error{},
		Mismatch: map[string]error{},
	}
	err := rs.Range(func(name string, rec types.Record) error {
		if err := checkMissing(name, expected, rec.Fields()); err != nil {
			var structural *errs.StructureError
			if errors.As(err, &structural) {
				return err
			}
			bad.Missing[name] = err
		}
		if err := checkExtra(name, expected, rec.Fields()); err != nil {
			bad.Extra[name] = err
		}
		if err := checkRecordTypes(f, name, rec); err != nil {
			bad.Mismatch[name] = err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !bad.Empty() {
		return bad
	}
	return nil
}

// CheckArrays validates an array file: field presence, per-field
// types and tensor-ness, and agreement of every unshared tensor on the
// number of records.
func CheckArrays(f *schema.Format, a types.ArraySet) error {
	expected := f.ArrayFields()
	if err := checkMissing("", expected, a.Fields()); err != nil {
		return err
	}
	if err := checkExtra("", expected, a.Fields()); err != nil {
		return err
	}
	if err := checkArrayTypes(f, a); err != nil {
		return err
	}
	return CheckRecordCounts(f, a)
}

// CheckRecordCounts verifies that every unshared tensor agrees on the
// leading num_records dimension.
func CheckRecordCounts(f *schema.Format, a types.ArraySet) error {
	expected := -1
	for _, field := range f.UnsharedFields() {
		t := a.Tensor(field)
		if t == nil || t.Rank() == 0 {
			return &errs.StructureError{
				Detail: fmt.Sprintf("unshared field %s is not an array, cannot count records", field),
			}
		}
		if expected < 0 {
			expected = t.Dim(0)
			continue
		}
		if t.Dim(0) != expected {
			return &errs.RecordCountError{Field: field, Expected: expected, Found: t.Dim(0)}
		}
	}
	return nil
}

// checkMissing reports expected fields absent from present. All fields
// missing at once is a structural failure, not a field-level one.
func checkMissing(recordName string, expected, present []string) error {
	have := toSet(present)
	var missing []string
	for _, name := range expected {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == len(expected) {
		return &errs.StructureError{
			Detail: fmt.Sprintf("all %d expected fields are missing from record %q", len(expected), recordName),
		}
	}
	return &errs.FieldMissingError{RecordName: recordName, Fields: missing}
}

func checkExtra(recordName string, expected, present []string) error {
	known := toSet(expected)
	var extra []string
	for _, name := range present {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return &errs.ExtraFieldError{RecordName: recordName, Fields: extra}
}

// checkRecordTypes verifies the element types of one site record.
// Absent fields are skipped; the missing-field check owns those.
func checkRecordTypes(f *schema.Format, recordName string, rec types.Record) error {
	mismatches := map[string]string{}
	for _, field := range f.SiteFields() {
		v, ok := rec[field]
		if !ok {
			continue
		}
		want, _ := f.FieldDType(field)
		if f.IsScalarField(field) {
			if t, isTensor := v.(*types.Tensor); isTensor {
				mismatches[field] = fmt.Sprintf("expected scalar %s, got %s array", want, t.DType())
				continue
			}
			if got := types.DTypeOf(v); got != want {
				mismatches[field] = fmt.Sprintf("expected %s, got %s", want, got)
			}
			continue
		}
		t, isTensor := v.(*types.Tensor)
		if !isTensor {
			mismatches[field] = fmt.Sprintf("expected %s array, got scalar", want)
			continue
		}
		if t.DType() != want {
			mismatches[field] = fmt.Sprintf("expected %s array, got %s array", want, t.DType())
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &errs.TypeMismatchError{RecordName: recordName, Mismatches: mismatches}
}

// checkArrayTypes verifies an array file's types. A tensor where a
// shared scalar belongs, or a scalar where a tensor belongs, is a
// structural failure.
func checkArrayTypes(f *schema.Format, a types.ArraySet) error {
	var structural []string
	mismatches := map[string]string{}

	for _, field := range f.ArrayFields() {
		v, ok := a[field]
		if !ok {
			continue
		}
		want, _ := f.FieldDType(field)
		if !f.ArrayFieldIsTensor(field) {
			if _, isTensor := v.(*types.Tensor); isTensor {
				structural = append(structural, field)
				continue
			}
			if got := types.DTypeOf(v); got != want {
				mismatches[field] = fmt.Sprintf("expected %s, got %s", want, got)
			}
			continue
		}
		t, isTensor := v.(*types.Tensor)
		if !isTensor {
			structural = append(structural, field)
			continue
		}
		if t.DType() != want {
			if field == "pulse_phase_offset" && isBrokenPPOPlaceholder(t) {
				// known producer defect, repaired by
				// FixPulsePhaseOffsetArray rather than rejected
				continue
			}
			mismatches[field] = fmt.Sprintf("expected %s array, got %s array", want, t.DType())
		}
	}

	if len(structural) > 0 {
		return &errs.StructureError{
			Detail: fmt.Sprintf("fields with wrong scalar/array layout: %v", structural),
		}
	}
	if len(mismatches) > 0 {
		return &errs.TypeMismatchError{Mismatches: mismatches}
	}
	return nil
}

// isBrokenPPOPlaceholder recognizes the malformed two-element
// pulse_phase_offset tensor written by older producers when the field
// was empty.
func isBrokenPPOPlaceholder(t *types.Tensor) bool {
	shape := t.Shape()
	return len(shape) == 1 && shape[0] == 2 && t.DType() == types.Int64
}

// FixPulsePhaseOffsetArray repairs the broken placeholder shape of the
// pulse_phase_offset field in an array file, substituting a correctly
// shaped zero-length tensor with one row per record.
func FixPulsePhaseOffsetArray(a types.ArraySet) {
	t := a.Tensor("pulse_phase_offset")
	if t == nil {
		return
	}
	shape := t.Shape()
	if len(shape) != 1 || shape[0] != 2 {
		return
	}
	nseq := a.Tensor("num_sequences")
	if nseq == nil {
		return
	}
	a["pulse_phase_offset"] = types.NewTensor(types.Float32, []int{nseq.Dim(0), 0})
}

// FixPulsePhaseOffsetSite repairs pulse_phase_offset in site records
// whose shape disagrees with the pulse table, replacing it with zero
// phase offsets, one per pulse.
func FixPulsePhaseOffsetSite(rs *types.RecordSet) {
	_ = rs.Range(func(name string, rec types.Record) error {
		ppo := rec.Tensor("pulse_phase_offset")
		if ppo == nil {
			return nil
		}
		pulses := rec.Tensor("pulses")
		if pulses == nil {
			return nil
		}
		if shapeEqual(ppo.Shape(), pulses.Shape()) {
			return nil
		}
		zeros := types.NewTensor(types.Float32, pulses.Shape())
		for i := 0; i < zeros.Len(); i++ {
			zeros.SetAt(i, float32(0))
		}
		rec["pulse_phase_offset"] = zeros
		return nil
	})
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}
