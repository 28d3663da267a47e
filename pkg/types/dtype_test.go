package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDTypeRoundTrip(t *testing.T) {
	for _, d := range []DType{
		Bool, Int8, Int16, Int32, Int64,
		Uint8, Uint16, Uint32, Uint64,
		Float32, Float64, Complex64, String,
	} {
		parsed, err := ParseDType(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	_, err := ParseDType("float128")
	assert.Error(t, err)
}

func TestDTypeOf(t *testing.T) {
	assert.Equal(t, Int64, DTypeOf(int64(5)))
	assert.Equal(t, Complex64, DTypeOf(complex64(1+2i)))
	assert.Equal(t, String, DTypeOf("x"))
	assert.Equal(t, DTypeUnknown, DTypeOf(struct{}{}))
}

func TestSentinels(t *testing.T) {
	assert.Equal(t, int32(-1), Int32.Sentinel())
	assert.Equal(t, ^uint16(0), Uint16.Sentinel())
	assert.True(t, math.IsNaN(Float64.Sentinel().(float64)))
	assert.Equal(t, "", String.Sentinel())
	assert.Equal(t, false, Bool.Sentinel())
}
