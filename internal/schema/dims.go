package schema

import (
	"fmt"

	"github.com/superdarn/borealisio/pkg/types"
)

// maxSequences scans every record for the largest num_sequences value.
func maxSequences(rs *types.RecordSet) ([]int, error) {
	max := 0
	err := rs.Range(func(key string, rec types.Record) error {
		n, ok := rec["num_sequences"].(int64)
		if !ok {
			return fmt.Errorf("record %s: num_sequences is not int64", key)
		}
		if int(n) > max {
			max = int(n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []int{max}, nil
}

// maxBeams scans every record for the longest beam_nums array.
func maxBeams(rs *types.RecordSet) ([]int, error) {
	return maxFieldLen("beam_nums")(rs)
}

// maxFieldLen builds a dimension function returning the longest extent
// of a 1-D field across all records.
func maxFieldLen(field string) ArrayDimFn {
	return func(rs *types.RecordSet) ([]int, error) {
		max := 0
		err := rs.Range(func(key string, rec types.Record) error {
			t := rec.Tensor(field)
			if t == nil {
				return fmt.Errorf("record %s: field %s is not an array", key, field)
			}
			if t.Len() > max {
				max = t.Len()
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return []int{max}, nil
	}
}

// maxPulsePhaseOffset finds the elementwise maximum shape of the phase
// encoding field across records. A leading zero dimension in the first
// record marks the field as unused and collapses it to a single zero
// extent.
func maxPulsePhaseOffset(rs *types.RecordSet) ([]int, error) {
	first := rs.First()
	if first == nil {
		return nil, fmt.Errorf("no records")
	}
	t := first.Tensor("pulse_phase_offset")
	if t == nil {
		return nil, fmt.Errorf("pulse_phase_offset is not an array")
	}
	max := t.Shape()
	if len(max) > 0 && max[0] == 0 {
		return []int{0}, nil
	}
	err := rs.Range(func(key string, rec types.Record) error {
		shape := rec.Tensor("pulse_phase_offset").Shape()
		if len(shape) != len(max) {
			return fmt.Errorf("record %s: pulse_phase_offset rank changed within file", key)
		}
		for i, d := range shape {
			if d > max[i] {
				max[i] = d
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return max, nil
}

// firstRecordElem builds a dimension function reading one element of a
// descriptor field from the first record. Used for dimensions that
// cannot change within a file.
func firstRecordElem(field string, idx int) ArrayDimFn {
	return func(rs *types.RecordSet) ([]int, error) {
		first := rs.First()
		if first == nil {
			return nil, fmt.Errorf("no records")
		}
		t := first.Tensor(field)
		if t == nil {
			return nil, fmt.Errorf("field %s is not an array", field)
		}
		if idx >= t.Len() {
			return nil, fmt.Errorf("field %s has no element %d", field, idx)
		}
		v, err := t.IntAt(idx)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		return []int{v}, nil
	}
}

// counterDim builds a site dimension function reading the per-record
// count field from the array file.
func counterDim(counter string) SiteDimFn {
	return func(a types.ArraySet, rec int) ([]int, error) {
		t := a.Tensor(counter)
		if t == nil {
			return nil, fmt.Errorf("field %s is not an array", counter)
		}
		v, err := t.IntAt(rec)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", counter, err)
		}
		return []int{v}, nil
	}
}

// shapeDim builds a site dimension function reading a fixed dimension
// of a padded tensor's shape.
func shapeDim(field string, dim int) SiteDimFn {
	return func(a types.ArraySet, rec int) ([]int, error) {
		t := a.Tensor(field)
		if t == nil {
			return nil, fmt.Errorf("field %s is not an array", field)
		}
		if dim >= t.Rank() {
			return nil, fmt.Errorf("field %s has no dimension %d", field, dim)
		}
		return []int{t.Dim(dim)}, nil
	}
}

// ppoSiteDim computes the true pulse_phase_offset extent for one
// record. When the padded tensor holds fewer elements than a single
// sequence the field is a zero-length placeholder and the extent
// collapses to zero in every dimension.
func ppoSiteDim() SiteDimFn {
	return func(a types.ArraySet, rec int) ([]int, error) {
		t := a.Tensor("pulse_phase_offset")
		if t == nil {
			return nil, fmt.Errorf("pulse_phase_offset is not an array")
		}
		nseq, err := counterOne(a, "num_sequences", rec)
		if err != nil {
			return nil, err
		}
		if t.Len() < nseq {
			return make([]int, t.Rank()-1), nil
		}
		extent := append([]int{nseq}, t.Shape()[2:]...)
		return extent, nil
	}
}

func counterOne(a types.ArraySet, counter string, rec int) (int, error) {
	t := a.Tensor(counter)
	if t == nil {
		return 0, fmt.Errorf("field %s is not an array", counter)
	}
	return t.IntAt(rec)
}

// genNumBeams produces the num_beams array-only field: the number of
// beams in each record.
func genNumBeams(rs *types.RecordSet) (*types.Tensor, error) {
	return genFieldLens("beam_nums")(rs)
}

// genFieldLens builds a generator producing a uint32 vector of the
// per-record length of a 1-D field.
func genFieldLens(field string) ArrayGenFn {
	return func(rs *types.RecordSet) (*types.Tensor, error) {
		lens := make([]uint32, 0, rs.Len())
		err := rs.Range(func(key string, rec types.Record) error {
			t := rec.Tensor(field)
			if t == nil {
				return fmt.Errorf("record %s: field %s is not an array", key, field)
			}
			lens = append(lens, uint32(t.Len()))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return types.Vector(lens), nil
	}
}

// genDescriptors builds a generator for a fixed string descriptor
// vector.
func genDescriptors(names ...string) ArrayGenFn {
	return func(rs *types.RecordSet) (*types.Tensor, error) {
		return types.Vector(names), nil
	}
}

// iterFieldLen builds the streaming counterpart of genFieldLens.
func iterFieldLen(field string) RecordGenFn {
	return func(rec types.Record) (any, error) {
		t := rec.Tensor(field)
		if t == nil {
			return nil, fmt.Errorf("field %s is not an array", field)
		}
		return uint32(t.Len()), nil
	}
}

// genSiteDescriptors builds a site generator for a fixed string
// descriptor vector.
func genSiteDescriptors(names ...string) SiteGenFn {
	return func(a types.ArraySet, rec int) (any, error) {
		return types.Vector(names), nil
	}
}

// genDimsVector builds a site generator producing a uint32 dimension
// vector from a mix of per-record counters and fixed tensor shape
// entries.
func genDimsVector(dims ...SiteDimFn) SiteGenFn {
	return func(a types.ArraySet, rec int) (any, error) {
		var out []uint32
		for _, fn := range dims {
			vals, err := fn(a, rec)
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				out = append(out, uint32(v))
			}
		}
		return types.Vector(out), nil
	}
}
