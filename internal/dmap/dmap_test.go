package dmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFieldOrderAndTypes(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, rec.SetScalar("stid", Short, int16(5)))
	require.NoError(t, rec.SetScalar("combf", String, "converted"))
	require.NoError(t, rec.SetVector("ptab", Short, []int32{3}, []int16{0, 9, 12}))

	assert.Equal(t, []string{"stid", "combf", "ptab"}, rec.Names())

	f, ok := rec.Get("ptab")
	require.True(t, ok)
	assert.True(t, f.Vector)
	assert.Equal(t, []int32{3}, f.Dims)
	assert.Equal(t, []int16{0, 9, 12}, f.Value)
}

func TestSetScalarRejectsWrongKind(t *testing.T) {
	rec := NewRecord()
	assert.Error(t, rec.SetScalar("stid", Short, int32(5)))
	assert.Error(t, rec.SetScalar("stid", Short, "5"))
	assert.Error(t, rec.SetVector("ptab", Short, []int32{3}, []int32{0, 9, 12}))
}

func TestSetVectorChecksDims(t *testing.T) {
	rec := NewRecord()
	assert.Error(t, rec.SetVector("ltab", Short, []int32{4, 2}, []int16{0, 0, 9}))
	assert.NoError(t, rec.SetVector("ltab", Short, []int32{2, 2}, []int16{0, 0, 9, 12}))
}

func TestSchemaCheckReportsEveryProblem(t *testing.T) {
	rec := NewRecord()
	// wrong type code
	require.NoError(t, rec.SetScalar("stid", Int, int32(5)))
	// scalar where a vector belongs
	require.NoError(t, rec.SetScalar("ptab", Short, int16(0)))
	// field outside the schema
	require.NoError(t, rec.SetScalar("bogus", Short, int16(0)))

	err := Rawacf.Check(rec)
	require.Error(t, err)
	assert.ErrorContains(t, err, "stid is int")
	assert.ErrorContains(t, err, "ptab is a scalar")
	assert.ErrorContains(t, err, "bogus is not a rawacf field")
	assert.ErrorContains(t, err, "missing scalar cp")
	assert.ErrorContains(t, err, "missing vector acfd")
}

func TestMsgpackCodecRoundTrip(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, rec.SetScalar("radar.revision.major", Char, int8(0)))
	require.NoError(t, rec.SetScalar("bmazm", Float, float32(3.24)))
	require.NoError(t, rec.SetScalar("combf", String, "converted record"))
	require.NoError(t, rec.SetScalar("mxpwr", Int, int32(-1)))
	require.NoError(t, rec.SetVector("ltab", Short, []int32{2, 2}, []int16{0, 0, 9, 12}))
	require.NoError(t, rec.SetVector("tnoise", Float, []int32{2}, []float32{4.5e6, 4.6e6}))

	var codec MsgpackCodec
	data, err := codec.Encode([]*WireRecord{rec, rec})
	require.NoError(t, err)

	back, err := codec.Decode(data)
	require.NoError(t, err)
	require.Len(t, back, 2)

	got := back[0]
	assert.Equal(t, rec.Names(), got.Names())
	for _, name := range rec.Names() {
		want, _ := rec.Get(name)
		have, ok := got.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, want.Type, have.Type, name)
		assert.Equal(t, want.Vector, have.Vector, name)
		assert.Equal(t, want.Dims, have.Dims, name)
		assert.Equal(t, want.Value, have.Value, name)
	}
}
