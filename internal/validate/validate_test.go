package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/pkg/types"
)

// testFormat is a small descriptor exercising every field class
// without dragging in the full radar field tables.
func testFormat() *schema.Format {
	return &schema.Format{
		FileType:        schema.Rawacf,
		Version:         "v0.5",
		Restructureable: true,
		ScalarTypes: map[string]types.DType{
			"station":       types.String,
			"num_sequences": types.Int64,
			"int_time":      types.Float32,
			"num_beams":     types.Uint32,
		},
		TensorTypes: map[string]types.DType{
			"pulses":         types.Uint32,
			"sqn_timestamps": types.Float64,
		},
		Shared: []string{"station", "pulses"},
		DimsArray: map[string][]schema.ArrayDimFn{
			"num_sequences":  {},
			"int_time":       {},
			"sqn_timestamps": {},
		},
		DimsSite: map[string][]schema.SiteDimFn{
			"num_sequences":  {},
			"int_time":       {},
			"sqn_timestamps": {},
		},
		ArrayGen:     map[string]schema.ArrayGenFn{"num_beams": nil},
		ArrayGenIter: map[string]schema.RecordGenFn{},
		SiteGen:      map[string]schema.SiteGenFn{},
	}
}

func goodRecord() types.Record {
	return types.Record{
		"station":        "sas",
		"num_sequences":  int64(30),
		"int_time":       float32(3.5),
		"pulses":         types.Vector([]uint32{0, 9, 12, 20, 22, 26, 27}),
		"sqn_timestamps": types.Vector([]float64{1558583991.06, 1558583991.16}),
	}
}

func TestCheckRecordsAllGood(t *testing.T) {
	rs := types.NewRecordSet()
	rs.Set("a", goodRecord())
	rs.Set("b", goodRecord())

	assert.NoError(t, CheckRecords(testFormat(), rs))
}

func TestCheckRecordsAggregatesFailures(t *testing.T) {
	missing := goodRecord()
	delete(missing, "int_time")

	extra := goodRecord()
	extra["bogus"] = int64(1)

	wrongType := goodRecord()
	wrongType["num_sequences"] = float64(30)

	rs := types.NewRecordSet()
	rs.Set("missing", missing)
	rs.Set("extra", extra)
	rs.Set("wrongType", wrongType)
	rs.Set("fine", goodRecord())

	err := CheckRecords(testFormat(), rs)
	var bad *errs.BadRecordsError
	require.True(t, errors.As(err, &bad))
	assert.Len(t, bad.Missing, 1)
	assert.Len(t, bad.Extra, 1)
	assert.Len(t, bad.Mismatch, 1)
	assert.Contains(t, bad.Missing, "missing")
	assert.Contains(t, bad.Extra, "extra")
	assert.Contains(t, bad.Mismatch, "wrongType")
}

func TestCheckRecordsEmptyRecordIsStructural(t *testing.T) {
	rs := types.NewRecordSet()
	rs.Set("empty", types.Record{})

	err := CheckRecords(testFormat(), rs)
	var se *errs.StructureError
	assert.True(t, errors.As(err, &se))
}

func TestCheckRecordTypeMismatches(t *testing.T) {
	rec := goodRecord()
	// scalar where an array belongs and vice versa
	rec["sqn_timestamps"] = float64(1558583991.06)
	rec["int_time"] = types.Vector([]float32{3.5})

	rs := types.NewRecordSet()
	rs.Set("r", rec)

	err := CheckRecords(testFormat(), rs)
	var bad *errs.BadRecordsError
	require.True(t, errors.As(err, &bad))
	assert.Contains(t, bad.Mismatch["r"].Error(), "sqn_timestamps")
	assert.Contains(t, bad.Mismatch["r"].Error(), "int_time")
}

func goodArrays(numRecords int) types.ArraySet {
	return types.ArraySet{
		"station":        "sas",
		"pulses":         types.Vector([]uint32{0, 9, 12}),
		"num_sequences":  types.NewTensor(types.Int64, []int{numRecords}),
		"int_time":       types.NewTensor(types.Float32, []int{numRecords}),
		"sqn_timestamps": types.NewTensor(types.Float64, []int{numRecords, 30}),
		"num_beams":      types.NewTensor(types.Uint32, []int{numRecords}),
	}
}

func TestCheckArraysGood(t *testing.T) {
	assert.NoError(t, CheckArrays(testFormat(), goodArrays(3)))
}

func TestCheckArraysScalarWhereTensorExpected(t *testing.T) {
	a := goodArrays(3)
	a["int_time"] = float32(3.5)

	err := CheckArrays(testFormat(), a)
	var se *errs.StructureError
	assert.True(t, errors.As(err, &se))
}

func TestCheckArraysTensorWhereScalarExpected(t *testing.T) {
	a := goodArrays(3)
	a["station"] = types.Vector([]string{"sas"})

	err := CheckArrays(testFormat(), a)
	var se *errs.StructureError
	assert.True(t, errors.As(err, &se))
}

func TestCheckArraysDTypeMismatch(t *testing.T) {
	a := goodArrays(3)
	a["sqn_timestamps"] = types.NewTensor(types.Float32, []int{3, 30})

	err := CheckArrays(testFormat(), a)
	var tme *errs.TypeMismatchError
	require.True(t, errors.As(err, &tme))
	assert.Contains(t, tme.Mismatches, "sqn_timestamps")
}

func TestCheckRecordCountsDisagreement(t *testing.T) {
	a := goodArrays(3)
	a["sqn_timestamps"] = types.NewTensor(types.Float64, []int{4, 30})

	err := CheckArrays(testFormat(), a)
	var rce *errs.RecordCountError
	require.True(t, errors.As(err, &rce))
	assert.Equal(t, "sqn_timestamps", rce.Field)
	assert.Equal(t, 3, rce.Expected)
	assert.Equal(t, 4, rce.Found)
}

func TestFixPulsePhaseOffsetArray(t *testing.T) {
	placeholder := types.Vector([]int64{0, 0})
	a := types.ArraySet{
		"num_sequences":      types.NewTensor(types.Int64, []int{5}),
		"pulse_phase_offset": placeholder,
	}
	FixPulsePhaseOffsetArray(a)

	fixed := a.Tensor("pulse_phase_offset")
	assert.Equal(t, types.Float32, fixed.DType())
	assert.Equal(t, []int{5, 0}, fixed.Shape())

	// A well formed field is left alone.
	good := types.NewTensor(types.Float32, []int{5, 3, 8})
	a["pulse_phase_offset"] = good
	FixPulsePhaseOffsetArray(a)
	assert.Same(t, good, a.Tensor("pulse_phase_offset"))
}

func TestFixPulsePhaseOffsetSite(t *testing.T) {
	pulses := types.Vector([]uint32{0, 9, 12, 20})
	broken := types.Record{
		"pulses":             pulses,
		"pulse_phase_offset": types.Vector([]float32{}),
	}
	intact := types.Record{
		"pulses":             pulses.Clone(),
		"pulse_phase_offset": types.Vector([]float32{0, 0, 0, 0}),
	}

	rs := types.NewRecordSet()
	rs.Set("broken", broken)
	rs.Set("intact", intact)
	FixPulsePhaseOffsetSite(rs)

	fixed := broken.Tensor("pulse_phase_offset")
	assert.Equal(t, []int{4}, fixed.Shape())
	assert.Equal(t, float32(0), fixed.At(0))

	kept, _ := rs.Get("intact")
	assert.Equal(t, []int{4}, kept.Tensor("pulse_phase_offset").Shape())
}

func TestBrokenPlaceholderSkipsArrayTypeCheck(t *testing.T) {
	f := testFormat()
	f.TensorTypes["pulse_phase_offset"] = types.Float32
	f.DimsArray["pulse_phase_offset"] = []schema.ArrayDimFn{}
	f.DimsSite["pulse_phase_offset"] = []schema.SiteDimFn{}

	a := goodArrays(2)
	a["pulse_phase_offset"] = types.Vector([]int64{0, 0})

	// The int64 placeholder would be a type mismatch; it is tolerated
	// so the repair rule can run instead.
	err := checkArrayTypes(f, a)
	assert.NoError(t, err)
}
