package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/superdarn/borealisio/pkg/types"
)

// Container files are a msgpack envelope. Site files carry the record
// keys in order plus one field map per record; array files carry a
// single field map. Field maps may hold reserved bookkeeping entries
// in the "_" namespace, which readers strip before the data reaches
// validation.

// ContainerVersionKey is the reserved field tagging the envelope layout
// version inside every field map.
const ContainerVersionKey = "_container_version"

const containerVersion = 1

const (
	structureSite  = "site"
	structureArray = "array"
)

type envelope struct {
	Structure string               `msgpack:"structure"`
	Keys      []string             `msgpack:"keys,omitempty"`
	Records   []map[string]wireValue `msgpack:"records,omitempty"`
	Fields    map[string]wireValue `msgpack:"fields,omitempty"`
}

// wireValue is one stored field. Scalars and tensors share the same
// element encoding; Tensor distinguishes a 1-element tensor from a
// scalar.
type wireValue struct {
	Tensor bool   `msgpack:"tensor"`
	Dtype  string `msgpack:"dtype"`
	Shape  []int  `msgpack:"shape,omitempty"`
	Raw    []byte `msgpack:"raw"`
}

func encodeEnvelope(env *envelope) ([]byte, error) {
	return msgpack.Marshal(env)
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding container: %w", err)
	}
	return &env, nil
}

func encodeRecord(rec types.Record) (map[string]wireValue, error) {
	out := make(map[string]wireValue, len(rec)+1)
	out[ContainerVersionKey] = scalarValue(types.Int64, []int64{containerVersion})
	for name, v := range rec {
		wv, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = wv
	}
	return out, nil
}

func decodeRecord(m map[string]wireValue) (types.Record, error) {
	rec := make(types.Record, len(m))
	for name, wv := range m {
		if reservedKey(name) {
			continue
		}
		v, err := decodeValue(wv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		rec[name] = v
	}
	return rec, nil
}

func reservedKey(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

func encodeValue(v any) (wireValue, error) {
	if t, ok := v.(*types.Tensor); ok {
		raw, err := encodeElems(t.DType(), t.Data())
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{
			Tensor: true,
			Dtype:  t.DType().String(),
			Shape:  t.Shape(),
			Raw:    raw,
		}, nil
	}
	d, err := scalarDType(v)
	if err != nil {
		return wireValue{}, err
	}
	raw, err := encodeElems(d, scalarSlice(v))
	if err != nil {
		return wireValue{}, err
	}
	return wireValue{Dtype: d.String(), Raw: raw}, nil
}

func decodeValue(wv wireValue) (any, error) {
	d := types.ParseDType(wv.Dtype)
	if d == types.DTypeUnknown {
		return nil, fmt.Errorf("unknown dtype %q", wv.Dtype)
	}
	if wv.Tensor {
		n := 1
		for _, dim := range wv.Shape {
			n *= dim
		}
		return decodeTensor(d, wv.Shape, n, wv.Raw)
	}
	t, err := decodeTensor(d, []int{1}, 1, wv.Raw)
	if err != nil {
		return nil, err
	}
	return t.At(0), nil
}

func scalarValue[T types.Element](d types.DType, one []T) wireValue {
	raw, _ := encodeElems(d, one)
	return wireValue{Dtype: d.String(), Raw: raw}
}

func scalarDType(v any) (types.DType, error) {
	d := types.DTypeOf(v)
	if d == types.DTypeUnknown {
		return 0, fmt.Errorf("unsupported scalar type %T", v)
	}
	return d, nil
}

func scalarSlice(v any) any {
	switch s := v.(type) {
	case bool:
		return []bool{s}
	case int8:
		return []int8{s}
	case int16:
		return []int16{s}
	case int32:
		return []int32{s}
	case int64:
		return []int64{s}
	case uint8:
		return []uint8{s}
	case uint16:
		return []uint16{s}
	case uint32:
		return []uint32{s}
	case uint64:
		return []uint64{s}
	case float32:
		return []float32{s}
	case float64:
		return []float64{s}
	case complex64:
		return []complex64{s}
	case string:
		return []string{s}
	}
	return nil
}

// encodeElems serializes a typed element slice little-endian. String
// elements are variable length and go through msgpack instead.
func encodeElems(d types.DType, data any) ([]byte, error) {
	switch s := data.(type) {
	case []bool:
		out := make([]byte, len(s))
		for i, b := range s {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	case []int8:
		out := make([]byte, len(s))
		for i, v := range s {
			out[i] = byte(v)
		}
		return out, nil
	case []int16:
		out := make([]byte, 2*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
		}
		return out, nil
	case []int32:
		out := make([]byte, 4*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
		}
		return out, nil
	case []int64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(v))
		}
		return out, nil
	case []uint8:
		return append([]byte(nil), s...), nil
	case []uint16:
		out := make([]byte, 2*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint16(out[2*i:], v)
		}
		return out, nil
	case []uint32:
		out := make([]byte, 4*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint32(out[4*i:], v)
		}
		return out, nil
	case []uint64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint64(out[8*i:], v)
		}
		return out, nil
	case []float32:
		out := make([]byte, 4*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out, nil
	case []float64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
		}
		return out, nil
	case []complex64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint32(out[8*i:], math.Float32bits(real(v)))
			binary.LittleEndian.PutUint32(out[8*i+4:], math.Float32bits(imag(v)))
		}
		return out, nil
	case []string:
		return msgpack.Marshal(s)
	}
	return nil, fmt.Errorf("unsupported element slice %T for dtype %s", data, d)
}

func decodeTensor(d types.DType, shape []int, n int, raw []byte) (*types.Tensor, error) {
	check := func(width int) error {
		if len(raw) != n*width {
			return fmt.Errorf("%s tensor payload is %d bytes, want %d", d, len(raw), n*width)
		}
		return nil
	}
	switch d {
	case types.Bool:
		if err := check(1); err != nil {
			return nil, err
		}
		s := make([]bool, n)
		for i := range s {
			s[i] = raw[i] != 0
		}
		return types.TensorOf(shape, s), nil
	case types.Int8:
		if err := check(1); err != nil {
			return nil, err
		}
		s := make([]int8, n)
		for i := range s {
			s[i] = int8(raw[i])
		}
		return types.TensorOf(shape, s), nil
	case types.Int16:
		if err := check(2); err != nil {
			return nil, err
		}
		s := make([]int16, n)
		for i := range s {
			s[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
		}
		return types.TensorOf(shape, s), nil
	case types.Int32:
		if err := check(4); err != nil {
			return nil, err
		}
		s := make([]int32, n)
		for i := range s {
			s[i] = int32(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return types.TensorOf(shape, s), nil
	case types.Int64:
		if err := check(8); err != nil {
			return nil, err
		}
		s := make([]int64, n)
		for i := range s {
			s[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		return types.TensorOf(shape, s), nil
	case types.Uint8:
		if err := check(1); err != nil {
			return nil, err
		}
		return types.TensorOf(shape, append([]uint8(nil), raw...)), nil
	case types.Uint16:
		if err := check(2); err != nil {
			return nil, err
		}
		s := make([]uint16, n)
		for i := range s {
			s[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
		return types.TensorOf(shape, s), nil
	case types.Uint32:
		if err := check(4); err != nil {
			return nil, err
		}
		s := make([]uint32, n)
		for i := range s {
			s[i] = binary.LittleEndian.Uint32(raw[4*i:])
		}
		return types.TensorOf(shape, s), nil
	case types.Uint64:
		if err := check(8); err != nil {
			return nil, err
		}
		s := make([]uint64, n)
		for i := range s {
			s[i] = binary.LittleEndian.Uint64(raw[8*i:])
		}
		return types.TensorOf(shape, s), nil
	case types.Float32:
		if err := check(4); err != nil {
			return nil, err
		}
		s := make([]float32, n)
		for i := range s {
			s[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return types.TensorOf(shape, s), nil
	case types.Float64:
		if err := check(8); err != nil {
			return nil, err
		}
		s := make([]float64, n)
		for i := range s {
			s[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		return types.TensorOf(shape, s), nil
	case types.Complex64:
		if err := check(8); err != nil {
			return nil, err
		}
		s := make([]complex64, n)
		for i := range s {
			re := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i+4:]))
			s[i] = complex(re, im)
		}
		return types.TensorOf(shape, s), nil
	case types.String:
		var s []string
		if err := msgpack.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("string tensor payload: %w", err)
		}
		if len(s) != n {
			return nil, fmt.Errorf("string tensor payload has %d elements, want %d", len(s), n)
		}
		return types.TensorOf(shape, s), nil
	}
	return nil, fmt.Errorf("unsupported dtype %s", d)
}
