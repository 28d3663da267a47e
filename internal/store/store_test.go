package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdarn/borealisio/internal/schema"
	"github.com/superdarn/borealisio/pkg/types"
)

func newTestBackend(t *testing.T, compress bool) *Local {
	t.Helper()
	l, err := NewLocal(compress)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func sampleRecord() types.Record {
	return types.Record{
		"station":           "sas",
		"experiment_id":     int64(3505),
		"scan_start_marker": true,
		"int_time":          float32(3.0),
		"rx_sample_rate":    float64(3333.3333),
		"freq":              uint32(10500),
		"pulses":            types.Vector([]uint32{0, 9, 12}),
		"sqn_timestamps":    types.Vector([]float64{1558583991.0, 1558583991.1}),
		"main_acfs":         types.Vector([]complex64{1 + 2i, complex(float32(math.NaN()), 0)}),
		"descriptors":       types.Vector([]string{"num_beams", "num_ranges"}),
	}
}

func TestSiteRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		l := newTestBackend(t, compress)
		path := filepath.Join(t.TempDir(), "data.site")

		rs := types.NewRecordSet()
		rs.Set("1558583991000", sampleRecord())
		rec2 := sampleRecord()
		rec2["experiment_id"] = int64(3506)
		rs.Set("1558583994000", rec2)

		ctx := context.Background()
		require.NoError(t, l.WriteSite(ctx, path, rs))

		back, err := l.ReadSite(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"1558583991000", "1558583994000"}, back.Keys())

		got, ok := back.Get("1558583991000")
		require.True(t, ok)
		want := sampleRecord()
		assert.Equal(t, want.Fields(), got.Fields())
		assert.Equal(t, want["station"], got["station"])
		assert.Equal(t, want["experiment_id"], got["experiment_id"])
		assert.Equal(t, want["scan_start_marker"], got["scan_start_marker"])
		assert.Equal(t, want["int_time"], got["int_time"])
		assert.True(t, want.Tensor("pulses").Equal(got.Tensor("pulses")))
		assert.True(t, want.Tensor("main_acfs").Equal(got.Tensor("main_acfs")), "NaN elements survive the round trip")
		assert.True(t, want.Tensor("descriptors").Equal(got.Tensor("descriptors")))
	}
}

func TestArrayRoundTrip(t *testing.T) {
	l := newTestBackend(t, true)
	path := filepath.Join(t.TempDir(), "data.array")
	ctx := context.Background()

	a := types.ArraySet{
		"borealis_git_hash": "v0.5.1-14-gdeadbee",
		"station":           "sas",
		"num_sequences":     types.Vector([]int64{2, 3}),
		"sqn_timestamps": types.TensorOf([]int{2, 3}, []float64{
			1558583991.0, 1558583991.1, math.NaN(),
			1558583994.0, 1558583994.1, 1558583994.2,
		}),
	}
	require.NoError(t, l.WriteArrays(ctx, path, a))

	back, err := l.ReadArrays(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, a.Fields(), back.Fields())
	assert.Equal(t, "v0.5.1-14-gdeadbee", back["borealis_git_hash"])
	assert.True(t, a.Tensor("sqn_timestamps").Equal(back.Tensor("sqn_timestamps")))
}

func TestReadArrayField(t *testing.T) {
	l := newTestBackend(t, false)
	path := filepath.Join(t.TempDir(), "data.array")
	ctx := context.Background()

	a := types.ArraySet{
		"borealis_git_hash": "v0.4.0",
		"num_sequences":     types.Vector([]int64{2, 3}),
	}
	require.NoError(t, l.WriteArrays(ctx, path, a))

	v, err := l.ReadArrayField(ctx, path, "num_sequences")
	require.NoError(t, err)
	tensor, ok := v.(*types.Tensor)
	require.True(t, ok)
	assert.Equal(t, []int{2}, tensor.Shape())

	_, err = l.ReadArrayField(ctx, path, "no_such_field")
	assert.Error(t, err)
}

func TestTopLevelNamesAndStructureDetection(t *testing.T) {
	l := newTestBackend(t, false)
	dir := t.TempDir()
	ctx := context.Background()

	sitePath := filepath.Join(dir, "data.site")
	rs := types.NewRecordSet()
	rs.Set("1558583991000", sampleRecord())
	require.NoError(t, l.WriteSite(ctx, sitePath, rs))

	arrayPath := filepath.Join(dir, "data.array")
	a := types.ArraySet{"borealis_git_hash": "v0.4.0", "station": "sas"}
	require.NoError(t, l.WriteArrays(ctx, arrayPath, a))

	siteNames, err := l.TopLevelNames(ctx, sitePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"1558583991000"}, siteNames)
	assert.Equal(t, schema.StructureSite, schema.DetectStructure(siteNames))

	arrayNames, err := l.TopLevelNames(ctx, arrayPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"borealis_git_hash", "station"}, arrayNames)
	assert.Equal(t, schema.StructureArray, schema.DetectStructure(arrayNames))
}

func TestReservedKeysStripped(t *testing.T) {
	rec := types.Record{"station": "sas"}
	m, err := encodeRecord(rec)
	require.NoError(t, err)
	_, tagged := m[ContainerVersionKey]
	assert.True(t, tagged, "written field maps carry the container version tag")

	back, err := decodeRecord(m)
	require.NoError(t, err)
	assert.Equal(t, []string{"station"}, back.Fields())
}

func TestAppendRecord(t *testing.T) {
	l := newTestBackend(t, false)
	path := filepath.Join(t.TempDir(), "data.site")
	ctx := context.Background()

	require.NoError(t, l.AppendRecord(ctx, path, "1558583991000", sampleRecord()))
	require.NoError(t, l.AppendRecord(ctx, path, "1558583994000", sampleRecord()))

	rs, err := l.ReadSite(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1558583991000", "1558583994000"}, rs.Keys())
}

func TestStructureMismatchErrors(t *testing.T) {
	l := newTestBackend(t, false)
	dir := t.TempDir()
	ctx := context.Background()

	sitePath := filepath.Join(dir, "data.site")
	rs := types.NewRecordSet()
	rs.Set("1558583991000", sampleRecord())
	require.NoError(t, l.WriteSite(ctx, sitePath, rs))

	_, err := l.ReadArrays(ctx, sitePath)
	assert.ErrorContains(t, err, "site structured")

	_, err = l.ReadSite(ctx, filepath.Join(dir, "missing.site"))
	assert.ErrorContains(t, err, "file not found")
}

func TestCompressedFileHasZstdFrame(t *testing.T) {
	l := newTestBackend(t, true)
	path := filepath.Join(t.TempDir(), "data.array")
	ctx := context.Background()

	a := types.ArraySet{"borealis_git_hash": "v0.4.0"}
	require.NoError(t, l.WriteArrays(ctx, path, a))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 4)
	assert.Equal(t, zstdMagic, raw[:4])

	// A plain-config backend can still read the compressed file.
	plain := newTestBackend(t, false)
	_, err = plain.ReadArrays(ctx, path)
	assert.NoError(t, err)
}
