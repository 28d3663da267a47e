// Package restructure converts borealis data between site structure
// (one record per integration period) and array structure (one padded
// tensor per field).
package restructure

import (
	"fmt"

	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/pkg/types"
)

// ToArray converts a site record set into array structure. Shared
// fields are taken from the first record; unshared fields become
// padded tensors with one row per record, sized to the largest extent
// any record needs and sentinel-filled beyond each record's true
// shape.
func ToArray(f *schema.Format, rs *types.RecordSet) (types.ArraySet, error) {
	a, err := siteToArray(f, rs)
	if err != nil {
		return nil, &errs.RestructureError{Op: "site to array", Err: err}
	}
	return a, nil
}

func siteToArray(f *schema.Format, rs *types.RecordSet) (types.ArraySet, error) {
	if !f.Restructureable {
		return nil, fmt.Errorf("%s files only exist in site structure", f.FileType)
	}
	if rs.Len() == 0 {
		return nil, fmt.Errorf("no records")
	}
	numRecords := rs.Len()

	reshaped, err := reshapeSiteArrays(f, rs)
	if err != nil {
		return nil, err
	}

	out := make(types.ArraySet)

	first := reshaped.First()
	for _, field := range f.Shared {
		if t := first.Tensor(field); t != nil {
			out[field] = t.Clone()
			continue
		}
		out[field] = first[field]
	}

	// Array-only counters are filled record by record below; the
	// remaining generated fields come from whole-file generators.
	for _, field := range f.ArrayOnlyFields() {
		if _, iterative := f.ArrayGenIter[field]; iterative {
			dtype, _ := f.FieldDType(field)
			out[field] = types.NewTensor(dtype, []int{numRecords})
			continue
		}
		t, err := f.ArrayGen[field](reshaped)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", field, err)
		}
		out[field] = t
	}

	// The padded shape of each unshared field is the worst case over
	// all records in every dimension slot.
	for _, field := range f.UnsharedFields() {
		dims, err := arrayDims(f, field, reshaped)
		if err != nil {
			return nil, err
		}
		dtype, ok := f.FieldDType(field)
		if !ok {
			return nil, fmt.Errorf("field %s missing from type tables", field)
		}
		out[field] = types.NewTensor(dtype, append([]int{numRecords}, dims...))
	}

	recIdx := 0
	err = reshaped.Range(func(key string, rec types.Record) error {
		for _, field := range f.UnsharedFields() {
			v, ok := rec[field]
			if !ok {
				// A record missing the field keeps its
				// sentinel-filled row.
				continue
			}
			dst := out[field].(*types.Tensor)
			if src := rec.Tensor(field); src != nil {
				if err := dst.SetSub(recIdx, src); err != nil {
					return fmt.Errorf("record %s field %s: %w", key, field, err)
				}
				continue
			}
			dst.SetAt(recIdx, v)
		}
		for field, gen := range f.ArrayGenIter {
			v, err := gen(rec)
			if err != nil {
				return fmt.Errorf("record %s field %s: %w", key, field, err)
			}
			out[field].(*types.Tensor).SetAt(recIdx, v)
		}
		recIdx++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToSite converts array structure back into timestamped site records.
// Record keys are rebuilt from the first sequence timestamp of each
// row, the same way the radar names records when writing live.
func ToSite(f *schema.Format, a types.ArraySet) (*types.RecordSet, error) {
	rs, err := arrayToSite(f, a)
	if err != nil {
		return nil, &errs.RestructureError{Op: "array to site", Err: err}
	}
	return rs, nil
}

func arrayToSite(f *schema.Format, a types.ArraySet) (*types.RecordSet, error) {
	if !f.Restructureable {
		return nil, fmt.Errorf("%s files only exist in site structure", f.FileType)
	}
	timestamps := a.Tensor("sqn_timestamps")
	if timestamps == nil {
		return nil, fmt.Errorf("sqn_timestamps is not an array, cannot count records")
	}
	numRecords := timestamps.Dim(0)

	rs := types.NewRecordSet()
	for rec := 0; rec < numRecords; rec++ {
		firstTS, err := timestamps.Sub(rec, []int{1})
		if err != nil {
			return nil, err
		}
		key, err := types.RecordKey(firstTS)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec, err)
		}

		record := make(types.Record)
		for _, field := range f.Shared {
			if t := a.Tensor(field); t != nil {
				record[field] = t.Clone()
				continue
			}
			record[field] = a[field]
		}

		for _, field := range f.SiteOnlyFields() {
			v, err := f.SiteGen[field](a, rec)
			if err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", key, field, err)
			}
			record[field] = v
		}

		for _, field := range f.UnsharedFields() {
			t := a.Tensor(field)
			if t == nil {
				return nil, fmt.Errorf("unshared field %s is not an array", field)
			}
			if f.IsScalarField(field) {
				record[field] = t.At(rec)
				continue
			}
			extent, err := siteDims(f, field, a, rec)
			if err != nil {
				return nil, err
			}
			sub, err := t.Sub(rec, extent)
			if err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", key, field, err)
			}
			record[field] = sub
		}

		flattenSiteArrays(f, record)
		rs.Set(key, record)
	}
	return rs, nil
}

// arrayDims evaluates the array-direction dimension functions for one
// unshared field and concatenates their outputs.
func arrayDims(f *schema.Format, field string, rs *types.RecordSet) ([]int, error) {
	var dims []int
	for _, fn := range f.DimsArray[field] {
		d, err := fn(rs)
		if err != nil {
			return nil, fmt.Errorf("sizing %s: %w", field, err)
		}
		dims = append(dims, d...)
	}
	return dims, nil
}

// siteDims evaluates the site-direction dimension functions for one
// unshared field at one record.
func siteDims(f *schema.Format, field string, a types.ArraySet, rec int) ([]int, error) {
	var dims []int
	for _, fn := range f.DimsSite[field] {
		d, err := fn(a, rec)
		if err != nil {
			return nil, fmt.Errorf("sizing %s: %w", field, err)
		}
		dims = append(dims, d...)
	}
	return dims, nil
}

// reshapeSiteArrays returns a copy of the record set with each
// flattened field restored to the true shape its dimension descriptor
// records.
func reshapeSiteArrays(f *schema.Format, rs *types.RecordSet) (*types.RecordSet, error) {
	if len(f.FlattenedFields) == 0 {
		return rs, nil
	}
	out := rs.Clone()
	err := out.Range(func(key string, rec types.Record) error {
		dimsTensor := rec.Tensor(f.DimsSource)
		if dimsTensor == nil {
			return fmt.Errorf("record %s: %s is not an array", key, f.DimsSource)
		}
		dims, err := dimsTensor.Ints()
		if err != nil {
			return fmt.Errorf("record %s: %s: %w", key, f.DimsSource, err)
		}
		for _, field := range f.FlattenedFields {
			t := rec.Tensor(field)
			if t == nil {
				return fmt.Errorf("record %s: %s is not an array", key, field)
			}
			reshaped, err := t.Reshape(dims)
			if err != nil {
				return fmt.Errorf("record %s field %s: %w", key, field, err)
			}
			rec[field] = reshaped
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// flattenSiteArrays restores the 1-D site file convention for the
// flattened fields of one record, in place.
func flattenSiteArrays(f *schema.Format, rec types.Record) {
	for _, field := range f.FlattenedFields {
		if t := rec.Tensor(field); t != nil {
			rec[field] = t.Flatten()
		}
	}
}
