package restructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdarn/borealisio/internal/errs"
	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/internal/store"
	"github.com/superdarn/borealisio/internal/validate"
	"github.com/superdarn/borealisio/pkg/types"
)

func TestRestructureFileEndToEnd(t *testing.T) {
	f, rs := rawacfSiteFixture(t)
	backend, err := store.NewLocal(false)
	require.NoError(t, err)
	defer backend.Close()

	dir := t.TempDir()
	ctx := context.Background()
	sitePath := filepath.Join(dir, "in.rawacf.site")
	arrayPath := filepath.Join(dir, "out.rawacf.array")
	backPath := filepath.Join(dir, "back.rawacf.site")

	require.NoError(t, backend.WriteSite(ctx, sitePath, rs))
	require.NoError(t, Restructure(ctx, backend, sitePath, arrayPath, schema.Rawacf, schema.StructureArray))

	a, err := backend.ReadArrays(ctx, arrayPath)
	require.NoError(t, err)
	assert.Equal(t, f.ArrayFields(), a.Fields())
	assert.Equal(t, []int{2, 3}, a.Tensor("sqn_timestamps").Shape())

	require.NoError(t, Restructure(ctx, backend, arrayPath, backPath, schema.Rawacf, schema.StructureSite))
	back, err := backend.ReadSite(ctx, backPath)
	require.NoError(t, err)
	require.Equal(t, rs.Keys(), back.Keys())
	for _, key := range rs.Keys() {
		want, _ := rs.Get(key)
		got, _ := back.Get(key)
		assertRecordsEqual(t, key, want, got)
	}
}

func TestDescribe(t *testing.T) {
	f, rs := rawacfSiteFixture(t)
	backend, err := store.NewLocal(false)
	require.NoError(t, err)
	defer backend.Close()

	dir := t.TempDir()
	ctx := context.Background()
	sitePath := filepath.Join(dir, "in.rawacf.site")
	arrayPath := filepath.Join(dir, "in.rawacf.array")

	require.NoError(t, backend.WriteSite(ctx, sitePath, rs))
	a, err := ToArray(f, rs)
	require.NoError(t, err)
	require.NoError(t, backend.WriteArrays(ctx, arrayPath, a))

	info, err := Describe(ctx, backend, sitePath)
	require.NoError(t, err)
	assert.Equal(t, &FileInfo{Structure: schema.StructureSite, Version: "v0.4", NumRecords: 2}, info)

	info, err = Describe(ctx, backend, arrayPath)
	require.NoError(t, err)
	assert.Equal(t, &FileInfo{Structure: schema.StructureArray, Version: "v0.4", NumRecords: 2}, info)
}

func TestRestructureCopyThrough(t *testing.T) {
	_, rs := rawacfSiteFixture(t)
	backend, err := store.NewLocal(false)
	require.NoError(t, err)
	defer backend.Close()

	dir := t.TempDir()
	ctx := context.Background()
	inPath := filepath.Join(dir, "in.site")
	outPath := filepath.Join(dir, "out.site")

	require.NoError(t, backend.WriteSite(ctx, inPath, rs))
	require.NoError(t, Restructure(ctx, backend, inPath, outPath, schema.Rawacf, schema.StructureSite))

	back, err := backend.ReadSite(ctx, outPath)
	require.NoError(t, err)
	assert.Equal(t, rs.Keys(), back.Keys())
}

// bfiqV06SiteRecord builds a complete v0.6 bfiq site record with two
// sequences and one beam. The data field is flattened as in site files.
func bfiqV06SiteRecord(baseTS float64, ppo *types.Tensor) types.Record {
	data := make([]complex64, 2*2*1*2)
	for i := range data {
		data[i] = complex(0.5, -0.25)
	}
	return types.Record{
		// shared
		"antenna_arrays_order":      types.Vector([]string{"main", "intf"}),
		"borealis_git_hash":         "v0.6.0-12-g1234abc",
		"data_normalization_factor": float64(9999999.999),
		"experiment_comment":        "",
		"experiment_id":             int16(3505),
		"experiment_name":           "twofsound",
		"first_range":               float32(180),
		"first_range_rtt":           float32(1200.8),
		"freq":                      uint32(10500),
		"intf_antenna_count":        uint32(4),
		"lags":                      types.TensorOf([]int{3, 2}, []uint32{0, 0, 0, 1, 1, 1}),
		"main_antenna_count":        uint32(16),
		"num_ranges":                uint32(75),
		"num_samps":                 uint32(2),
		"pulses":                    types.Vector([]uint32{0, 1}),
		"range_sep":                 float32(44.96),
		"rx_sample_rate":            float64(3.333333e6),
		"samples_data_type":         "complex float",
		"scheduling_mode":           "common",
		"slice_comment":             "",
		"slice_id":                  uint32(0),
		"station":                   "sas",
		"tau_spacing":               uint32(2400),
		"tx_pulse_len":              uint32(300),
		// unshared
		"num_sequences":           int64(2),
		"int_time":                float32(3.5),
		"sqn_timestamps":          types.Vector([]float64{baseTS, baseTS + 0.1}),
		"noise_at_freq":           types.Vector([]float64{4.5e6, 4.6e6}),
		"data":                    types.Vector(data),
		"scan_start_marker":       true,
		"beam_nums":               types.Vector([]uint32{0}),
		"beam_azms":               types.Vector([]float64{0}),
		"num_slices":              int64(1),
		"blanked_samples":         types.Vector([]uint32{0, 8}),
		"slice_interfacing":       "{}",
		"agc_status_word":         uint32(0),
		"lp_status_word":          uint32(0),
		"gps_locked":              true,
		"gps_to_system_time_diff": float64(0.001),
		"pulse_phase_offset":      ppo,
		// site only
		"data_descriptors": types.Vector([]string{"num_antenna_arrays", "num_sequences", "num_beams", "num_samps"}),
		"data_dimensions":  types.Vector([]uint32{2, 2, 1, 2}),
	}
}

func bfiqV06SiteFixture(t *testing.T, ppo *types.Tensor) (*schema.Format, *types.RecordSet) {
	t.Helper()
	f, err := schema.Lookup("v0.6", schema.Bfiq)
	require.NoError(t, err)

	rs := types.NewRecordSet()
	rs.Set("1558583991500", bfiqV06SiteRecord(1558583991.5, ppo.Clone()))
	rs.Set("1558583994500", bfiqV06SiteRecord(1558583994.5, ppo.Clone()))
	require.NoError(t, validate.CheckRecords(f, rs))
	return f, rs
}

func TestReadAsSiteKeepsPulsePhaseOffset(t *testing.T) {
	// A site file's pulse_phase_offset is authoritative: a per-sequence
	// encoding whose shape disagrees with the pulse table must come
	// back exactly as written, not zeroed.
	ppo := types.TensorOf([]int{2, 2}, []float32{1.5, 2.5, 3.5, 4.5})
	_, rs := bfiqV06SiteFixture(t, ppo)

	backend, err := store.NewLocal(false)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "in.bfiq.site")
	require.NoError(t, backend.WriteSite(ctx, path, rs))

	back, err := ReadAsSite(ctx, backend, path, schema.Bfiq)
	require.NoError(t, err)
	got := back.First().Tensor("pulse_phase_offset")
	require.NotNil(t, got)
	require.Equal(t, []int{2, 2}, got.Shape())
	assert.True(t, ppo.Equal(got))
}

func TestArrayToSiteRepairsPulsePhaseOffsetPlaceholder(t *testing.T) {
	ppo := types.TensorOf([]int{2, 2}, []float32{0, 0, 0, 0})
	f, rs := bfiqV06SiteFixture(t, ppo)

	a, err := ToArray(f, rs)
	require.NoError(t, err)
	// Older producers wrote this two-element placeholder when the
	// field was empty.
	a["pulse_phase_offset"] = types.Vector([]int64{0, 0})

	backend, err := store.NewLocal(false)
	require.NoError(t, err)
	defer backend.Close()

	dir := t.TempDir()
	ctx := context.Background()
	arrayPath := filepath.Join(dir, "in.bfiq.array")
	sitePath := filepath.Join(dir, "out.bfiq.site")
	require.NoError(t, backend.WriteArrays(ctx, arrayPath, a))

	require.NoError(t, Restructure(ctx, backend, arrayPath, sitePath, schema.Bfiq, schema.StructureSite))
	back, err := backend.ReadSite(ctx, sitePath)
	require.NoError(t, err)

	// Reconstructed records carry zero offsets, one per pulse.
	got := back.First().Tensor("pulse_phase_offset")
	require.NotNil(t, got)
	assert.True(t, types.TensorOf([]int{2}, []float32{0, 0}).Equal(got))
}

func TestRestructureRefusesSamePath(t *testing.T) {
	backend, err := store.NewLocal(false)
	require.NoError(t, err)
	defer backend.Close()

	path := filepath.Join(t.TempDir(), "data.site")
	err = Restructure(context.Background(), backend, path, path, schema.Rawacf, schema.StructureArray)

	var overwrite *errs.OverwriteError
	require.ErrorAs(t, err, &overwrite)
	assert.Equal(t, path, overwrite.Path)
}
