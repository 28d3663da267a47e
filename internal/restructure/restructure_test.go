package restructure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/internal/validate"
	"github.com/superdarn/borealisio/pkg/types"
)

const (
	numRanges = 2
	numLags   = 3
)

// rawacfSiteRecord builds a complete v0.4 rawacf site record with the
// given ragged extents. Correlation data is flattened as in site files.
func rawacfSiteRecord(baseTS float64, numSeqs, numBeams int) types.Record {
	ts := make([]float64, numSeqs)
	noise := make([]float64, numSeqs)
	for i := range ts {
		ts[i] = baseTS + float64(i)*0.1
		noise[i] = 4.5e6
	}
	beams := make([]uint32, numBeams)
	azms := make([]float64, numBeams)
	for i := range beams {
		beams[i] = uint32(i)
		azms[i] = float64(i) * 3.24
	}
	acfs := make([]complex64, numBeams*numRanges*numLags)
	for i := range acfs {
		acfs[i] = complex(float32(i), -float32(i))
	}

	return types.Record{
		// shared
		"blanked_samples":           types.Vector([]uint32{0, 18}),
		"borealis_git_hash":         "v0.4.1-13-gabcdef0",
		"data_normalization_factor": float64(9999999.999),
		"experiment_comment":        "",
		"experiment_id":             int64(3505),
		"experiment_name":           "twofsound",
		"first_range":               float32(180),
		"first_range_rtt":           float32(1200.8),
		"freq":                      uint32(10500),
		"intf_antenna_count":        uint32(4),
		"lags":                      types.TensorOf([]int{numLags, 2}, []uint32{0, 0, 0, 9, 12, 20}),
		"main_antenna_count":        uint32(16),
		"pulses":                    types.Vector([]uint32{0, 9, 12, 20, 22, 26, 27}),
		"range_sep":                 float32(44.96),
		"rx_sample_rate":            float64(3333.3333),
		"samples_data_type":         "complex float",
		"slice_comment":             "",
		"station":                   "sas",
		"tau_spacing":               uint32(2400),
		"tx_pulse_len":              uint32(300),
		// unshared
		"num_sequences":     int64(numSeqs),
		"int_time":          float32(3.000395),
		"sqn_timestamps":    types.Vector(ts),
		"noise_at_freq":     types.Vector(noise),
		"main_acfs":         types.Vector(acfs),
		"intf_acfs":         types.Vector(acfs),
		"xcfs":              types.Vector(acfs),
		"scan_start_marker": baseTS == firstRecordTS,
		"beam_nums":         types.Vector(beams),
		"beam_azms":         types.Vector(azms),
		"num_slices":        int64(1),
		// site only
		"correlation_descriptors": types.Vector([]string{"num_beams", "num_ranges", "num_lags"}),
		"correlation_dimensions":  types.Vector([]uint32{uint32(numBeams), numRanges, numLags}),
	}
}

const (
	firstRecordTS  = 1558583991.0
	secondRecordTS = 1558583994.0
)

func rawacfSiteFixture(t *testing.T) (*schema.Format, *types.RecordSet) {
	t.Helper()
	f, err := schema.Lookup("v0.4", schema.Rawacf)
	require.NoError(t, err)

	rs := types.NewRecordSet()
	rs.Set("1558583991000", rawacfSiteRecord(firstRecordTS, 2, 1))
	rs.Set("1558583994000", rawacfSiteRecord(secondRecordTS, 3, 2))
	require.NoError(t, validate.CheckRecords(f, rs))
	return f, rs
}

func TestToArrayFieldSet(t *testing.T) {
	f, rs := rawacfSiteFixture(t)

	a, err := ToArray(f, rs)
	require.NoError(t, err)
	assert.Equal(t, f.ArrayFields(), a.Fields())
	require.NoError(t, validate.CheckArrays(f, a))
}

func TestToArrayShapesAndCounters(t *testing.T) {
	f, rs := rawacfSiteFixture(t)

	a, err := ToArray(f, rs)
	require.NoError(t, err)

	// Padded to the worst case: 3 sequences and 2 beams.
	assert.Equal(t, []int{2, 3}, a.Tensor("sqn_timestamps").Shape())
	assert.Equal(t, []int{2, 2, numRanges, numLags}, a.Tensor("main_acfs").Shape())
	assert.Equal(t, []int{2, 2}, a.Tensor("beam_nums").Shape())

	// Per-record scalars become one row each.
	assert.Equal(t, []int{2}, a.Tensor("num_sequences").Shape())
	assert.Equal(t, int64(2), a.Tensor("num_sequences").At(0))
	assert.Equal(t, int64(3), a.Tensor("num_sequences").At(1))

	// The generated counter tracks the true beam count per record.
	numBeams := a.Tensor("num_beams")
	assert.Equal(t, uint32(1), numBeams.At(0))
	assert.Equal(t, uint32(2), numBeams.At(1))

	// Shared fields hold a single value.
	assert.Equal(t, "sas", a["station"])
	assert.Equal(t, []int{7}, a.Tensor("pulses").Shape())
}

func TestToArrayPaddingSentinels(t *testing.T) {
	f, rs := rawacfSiteFixture(t)

	a, err := ToArray(f, rs)
	require.NoError(t, err)

	// Record 0 has 2 of 3 sequence slots; the last is NaN.
	ts := a.Tensor("sqn_timestamps")
	assert.Equal(t, firstRecordTS, ts.At(0))
	assert.True(t, math.IsNaN(ts.At(2).(float64)))
	assert.Equal(t, secondRecordTS+0.2, ts.At(5))

	// Record 0 has 1 of 2 beam slots; the second is the integer
	// sentinel.
	beams := a.Tensor("beam_nums")
	assert.Equal(t, uint32(0), beams.At(0))
	assert.Equal(t, ^uint32(0), beams.At(1))

	// Correlation cells beyond beam 0 of record 0 are NaN-filled.
	acfs := a.Tensor("main_acfs")
	beyond, err := acfs.Sub(0, []int{2, numRanges, numLags})
	require.NoError(t, err)
	last := beyond.At(beyond.Len() - 1).(complex64)
	assert.True(t, math.IsNaN(float64(real(last))))
}

func TestToArrayRecordMissingFieldKeepsSentinelRow(t *testing.T) {
	f, err := schema.Lookup("v0.4", schema.Rawacf)
	require.NoError(t, err)

	rs := types.NewRecordSet()
	rs.Set("1558583991000", rawacfSiteRecord(firstRecordTS, 2, 1))
	second := rawacfSiteRecord(secondRecordTS, 3, 2)
	delete(second, "beam_azms")
	delete(second, "int_time")
	rs.Set("1558583994000", second)

	a, err := ToArray(f, rs)
	require.NoError(t, err)

	// The record without the field keeps its sentinel-filled row;
	// the other record's row is untouched.
	azms := a.Tensor("beam_azms")
	require.Equal(t, []int{2, 2}, azms.Shape())
	assert.Equal(t, float64(0), azms.At(0))
	assert.True(t, math.IsNaN(azms.At(2).(float64)))
	assert.True(t, math.IsNaN(azms.At(3).(float64)))

	intTime := a.Tensor("int_time")
	assert.Equal(t, float32(3.000395), intTime.At(0))
	assert.True(t, math.IsNaN(float64(intTime.At(1).(float32))))
}

func TestRoundTripSiteArraySite(t *testing.T) {
	f, rs := rawacfSiteFixture(t)

	a, err := ToArray(f, rs)
	require.NoError(t, err)
	back, err := ToSite(f, a)
	require.NoError(t, err)
	require.NoError(t, validate.CheckRecords(f, back))

	assert.Equal(t, rs.Keys(), back.Keys())
	for _, key := range rs.Keys() {
		want, _ := rs.Get(key)
		got, ok := back.Get(key)
		require.True(t, ok, key)
		assertRecordsEqual(t, key, want, got)
	}
}

func assertRecordsEqual(t *testing.T, key string, want, got types.Record) {
	t.Helper()
	require.Equal(t, want.Fields(), got.Fields(), "field set of record %s", key)
	for _, field := range want.Fields() {
		if wt := want.Tensor(field); wt != nil {
			gt := got.Tensor(field)
			require.NotNil(t, gt, "%s/%s became a scalar", key, field)
			assert.True(t, wt.Equal(gt), "%s/%s differs", key, field)
			continue
		}
		assert.Equal(t, want[field], got[field], "%s/%s", key, field)
	}
}

func TestToSiteRecordKeysFromTimestamps(t *testing.T) {
	f, rs := rawacfSiteFixture(t)

	a, err := ToArray(f, rs)
	require.NoError(t, err)
	back, err := ToSite(f, a)
	require.NoError(t, err)

	// Keys are rebuilt from the first timestamp, in milliseconds.
	assert.Equal(t, []string{"1558583991000", "1558583994000"}, back.Keys())
}

func TestRawrfNotRestructureable(t *testing.T) {
	f, err := schema.Lookup("v0.4", schema.Rawrf)
	require.NoError(t, err)

	_, err = ToArray(f, types.NewRecordSet())
	assert.Error(t, err)
	_, err = ToSite(f, types.ArraySet{})
	assert.Error(t, err)
}

func TestBlankedSamplesRaggedAtV05(t *testing.T) {
	f, err := schema.Lookup("v0.5", schema.Rawacf)
	require.NoError(t, err)

	rs := types.NewRecordSet()
	for i, blanked := range [][]uint32{{0, 18}, {0, 18, 19}} {
		rec := rawacfSiteRecord(firstRecordTS+3*float64(i), 2, 1)
		rec["blanked_samples"] = types.Vector(blanked)
		rec["slice_id"] = uint32(0)
		rec["slice_interfacing"] = "{}"
		rec["scheduling_mode"] = "common"
		rec["averaging_method"] = "mean"
		key, err := types.RecordKey(rec.Tensor("sqn_timestamps"))
		require.NoError(t, err)
		rs.Set(key, rec)
	}
	require.NoError(t, validate.CheckRecords(f, rs))

	a, err := ToArray(f, rs)
	require.NoError(t, err)

	// blanked_samples is unshared from v0.5 on, padded to the longest
	// record with its counter alongside.
	assert.Equal(t, []int{2, 3}, a.Tensor("blanked_samples").Shape())
	counts := a.Tensor("num_blanked_samples")
	assert.Equal(t, uint32(2), counts.At(0))
	assert.Equal(t, uint32(3), counts.At(1))

	back, err := ToSite(f, a)
	require.NoError(t, err)
	rec := back.First()
	assert.Equal(t, []int{2}, rec.Tensor("blanked_samples").Shape())
}
