package types

import (
	"fmt"
	"math"
)

// Tensor is an n-dimensional array of homogeneous elements, stored
// row-major in a flat backing slice. Tensors are treated as values:
// every transform that needs to modify one works on a Clone.
type Tensor struct {
	dtype DType
	shape []int
	data  any
}

// Element is the set of Go types a Tensor can hold.
type Element interface {
	~bool | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~complex64 | ~string
}

// NewTensor allocates a tensor of the given dtype and shape with every
// element set to the dtype's sentinel value.
func NewTensor(dtype DType, shape []int) *Tensor {
	n := numElems(shape)
	t := &Tensor{dtype: dtype, shape: append([]int(nil), shape...)}
	switch s := dtype.Sentinel().(type) {
	case bool:
		t.data = fill(make([]bool, n), s)
	case int8:
		t.data = fill(make([]int8, n), s)
	case int16:
		t.data = fill(make([]int16, n), s)
	case int32:
		t.data = fill(make([]int32, n), s)
	case int64:
		t.data = fill(make([]int64, n), s)
	case uint8:
		t.data = fill(make([]uint8, n), s)
	case uint16:
		t.data = fill(make([]uint16, n), s)
	case uint32:
		t.data = fill(make([]uint32, n), s)
	case uint64:
		t.data = fill(make([]uint64, n), s)
	case float32:
		t.data = fill(make([]float32, n), s)
	case float64:
		t.data = fill(make([]float64, n), s)
	case complex64:
		t.data = fill(make([]complex64, n), s)
	case string:
		t.data = fill(make([]string, n), s)
	default:
		panic(fmt.Sprintf("types: cannot allocate tensor of dtype %s", dtype))
	}
	return t
}

func fill[T any](s []T, v T) []T {
	for i := range s {
		s[i] = v
	}
	return s
}

// TensorOf builds a tensor from a typed slice. The slice is copied.
// Panics if the shape does not match the slice length.
func TensorOf[T Element](shape []int, data []T) *Tensor {
	if numElems(shape) != len(data) {
		panic(fmt.Sprintf("types: shape %v does not match %d elements", shape, len(data)))
	}
	var zero T
	return &Tensor{
		dtype: DTypeOf(zero),
		shape: append([]int(nil), shape...),
		data:  append([]T(nil), data...),
	}
}

// Vector builds a 1-D tensor from a typed slice.
func Vector[T Element](data []T) *Tensor {
	return TensorOf([]int{len(data)}, data)
}

func numElems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func (t *Tensor) DType() DType { return t.dtype }

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

func (t *Tensor) Rank() int { return len(t.shape) }

// Len is the total number of elements.
func (t *Tensor) Len() int { return numElems(t.shape) }

// Dim returns a single dimension size.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Data exposes the flat backing slice. Callers must not mutate it.
func (t *Tensor) Data() any { return t.data }

// At returns the element at a flat (row-major) index.
func (t *Tensor) At(i int) any {
	switch d := t.data.(type) {
	case []bool:
		return d[i]
	case []int8:
		return d[i]
	case []int16:
		return d[i]
	case []int32:
		return d[i]
	case []int64:
		return d[i]
	case []uint8:
		return d[i]
	case []uint16:
		return d[i]
	case []uint32:
		return d[i]
	case []uint64:
		return d[i]
	case []float32:
		return d[i]
	case []float64:
		return d[i]
	case []complex64:
		return d[i]
	case []string:
		return d[i]
	}
	panic("types: tensor has no backing data")
}

// SetAt writes the element at a flat (row-major) index. The value must
// match the tensor's dtype.
func (t *Tensor) SetAt(i int, v any) {
	switch d := t.data.(type) {
	case []bool:
		d[i] = v.(bool)
	case []int8:
		d[i] = v.(int8)
	case []int16:
		d[i] = v.(int16)
	case []int32:
		d[i] = v.(int32)
	case []int64:
		d[i] = v.(int64)
	case []uint8:
		d[i] = v.(uint8)
	case []uint16:
		d[i] = v.(uint16)
	case []uint32:
		d[i] = v.(uint32)
	case []uint64:
		d[i] = v.(uint64)
	case []float32:
		d[i] = v.(float32)
	case []float64:
		d[i] = v.(float64)
	case []complex64:
		d[i] = v.(complex64)
	case []string:
		d[i] = v.(string)
	default:
		panic("types: tensor has no backing data")
	}
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{dtype: t.dtype, shape: append([]int(nil), t.shape...)}
	switch d := t.data.(type) {
	case []bool:
		out.data = append([]bool(nil), d...)
	case []int8:
		out.data = append([]int8(nil), d...)
	case []int16:
		out.data = append([]int16(nil), d...)
	case []int32:
		out.data = append([]int32(nil), d...)
	case []int64:
		out.data = append([]int64(nil), d...)
	case []uint8:
		out.data = append([]uint8(nil), d...)
	case []uint16:
		out.data = append([]uint16(nil), d...)
	case []uint32:
		out.data = append([]uint32(nil), d...)
	case []uint64:
		out.data = append([]uint64(nil), d...)
	case []float32:
		out.data = append([]float32(nil), d...)
	case []float64:
		out.data = append([]float64(nil), d...)
	case []complex64:
		out.data = append([]complex64(nil), d...)
	case []string:
		out.data = append([]string(nil), d...)
	}
	return out
}

// Reshape returns a copy of the tensor with a new shape. The element
// count must be unchanged.
func (t *Tensor) Reshape(shape []int) (*Tensor, error) {
	if numElems(shape) != t.Len() {
		return nil, fmt.Errorf("cannot reshape %v tensor to %v", t.shape, shape)
	}
	out := t.Clone()
	out.shape = append([]int(nil), shape...)
	return out, nil
}

// Flatten returns a 1-D copy of the tensor.
func (t *Tensor) Flatten() *Tensor {
	out := t.Clone()
	out.shape = []int{t.Len()}
	return out
}

// strides returns the flat-offset multiplier per dimension for a
// row-major layout.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// SetSub copies src into the leading sub-slice of the tensor at the
// given index along dimension 0. src's shape must fit within the
// remaining dimensions; cells beyond src's extent keep their sentinel.
func (t *Tensor) SetSub(index int, src *Tensor) error {
	if src.dtype != t.dtype {
		return fmt.Errorf("dtype mismatch: %s into %s tensor", src.dtype, t.dtype)
	}
	if src.Rank() != t.Rank()-1 {
		return fmt.Errorf("rank mismatch: %d-d data into %d-d padded tensor", src.Rank(), t.Rank())
	}
	inner := t.shape[1:]
	for i, d := range src.shape {
		if d > inner[i] {
			return fmt.Errorf("data shape %v exceeds padded shape %v", src.shape, inner)
		}
	}
	if src.Len() == 0 {
		return nil
	}
	dstStride := strides(t.shape)
	base := index * dstStride[0]
	idx := make([]int, src.Rank())
	for flat := 0; flat < src.Len(); flat++ {
		off := base
		for d := range idx {
			off += idx[d] * dstStride[d+1]
		}
		t.SetAt(off, src.At(flat))
		// advance the odometer over src's shape
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < src.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return nil
}

// Sub extracts a copy of the given extent at an index along dimension 0,
// undoing the padding applied by SetSub.
func (t *Tensor) Sub(index int, extent []int) (*Tensor, error) {
	if len(extent) != t.Rank()-1 {
		return nil, fmt.Errorf("extent %v does not match %d-d tensor", extent, t.Rank())
	}
	inner := t.shape[1:]
	for i, d := range extent {
		if d > inner[i] {
			return nil, fmt.Errorf("extent %v exceeds tensor shape %v", extent, inner)
		}
	}
	out := NewTensor(t.dtype, extent)
	if out.Len() == 0 {
		return out, nil
	}
	srcStride := strides(t.shape)
	base := index * srcStride[0]
	idx := make([]int, len(extent))
	for flat := 0; flat < out.Len(); flat++ {
		off := base
		for d := range idx {
			off += idx[d] * srcStride[d+1]
		}
		out.SetAt(flat, t.At(off))
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < extent[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}

// Equal reports deep equality of dtype, shape, and elements. NaN
// elements compare equal to each other so padded tensors can be
// compared directly.
func (t *Tensor) Equal(o *Tensor) bool {
	if t.dtype != o.dtype || len(t.shape) != len(o.shape) {
		return false
	}
	for i := range t.shape {
		if t.shape[i] != o.shape[i] {
			return false
		}
	}
	for i := 0; i < t.Len(); i++ {
		if !elemEqual(t.At(i), o.At(i)) {
			return false
		}
	}
	return true
}

func elemEqual(a, b any) bool {
	switch av := a.(type) {
	case float32:
		bv := b.(float32)
		return av == bv || (math.IsNaN(float64(av)) && math.IsNaN(float64(bv)))
	case float64:
		bv := b.(float64)
		return av == bv || (math.IsNaN(av) && math.IsNaN(bv))
	case complex64:
		bv := b.(complex64)
		return elemEqual(real(av), real(bv)) && elemEqual(imag(av), imag(bv))
	default:
		return a == b
	}
}

// Float64At reads a numeric element as float64, converting integer and
// float kinds. Used by dimension and generator functions that only need
// a number.
func (t *Tensor) Float64At(i int) (float64, error) {
	switch v := t.At(i).(type) {
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("element %d is not numeric", i)
}

// IntAt reads a numeric element as int.
func (t *Tensor) IntAt(i int) (int, error) {
	f, err := t.Float64At(i)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Ints converts a 1-D numeric tensor to a []int. Used for dimension
// descriptor fields.
func (t *Tensor) Ints() ([]int, error) {
	out := make([]int, t.Len())
	for i := range out {
		v, err := t.IntAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Complex64s returns the backing slice of a complex64 tensor.
func (t *Tensor) Complex64s() ([]complex64, error) {
	d, ok := t.data.([]complex64)
	if !ok {
		return nil, fmt.Errorf("tensor dtype is %s, not complex64", t.dtype)
	}
	return d, nil
}

// Float64s returns the backing slice of a float64 tensor.
func (t *Tensor) Float64s() ([]float64, error) {
	d, ok := t.data.([]float64)
	if !ok {
		return nil, fmt.Errorf("tensor dtype is %s, not float64", t.dtype)
	}
	return d, nil
}

// Uint32s returns the backing slice of a uint32 tensor.
func (t *Tensor) Uint32s() ([]uint32, error) {
	d, ok := t.data.([]uint32)
	if !ok {
		return nil, fmt.Errorf("tensor dtype is %s, not uint32", t.dtype)
	}
	return d, nil
}

// Strings returns the backing slice of a string tensor.
func (t *Tensor) Strings() ([]string, error) {
	d, ok := t.data.([]string)
	if !ok {
		return nil, fmt.Errorf("tensor dtype is %s, not string", t.dtype)
	}
	return d, nil
}
