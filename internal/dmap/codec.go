package dmap

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes wire records for handoff to the DMap writer. The
// production byte layout is owned by the downstream radar toolchain;
// the msgpack framing here is the interchange format used by the
// pipeline and its tests.
type Codec interface {
	Encode(recs []*WireRecord) ([]byte, error)
	Decode(data []byte) ([]*WireRecord, error)
}

// MsgpackCodec frames records as a msgpack array of field lists.
type MsgpackCodec struct{}

type wireField struct {
	Name   string  `msgpack:"name"`
	Type   Type    `msgpack:"type"`
	Vector bool    `msgpack:"vector"`
	Dims   []int32 `msgpack:"dims,omitempty"`
	Value  any     `msgpack:"value"`
}

func (MsgpackCodec) Encode(recs []*WireRecord) ([]byte, error) {
	out := make([][]wireField, len(recs))
	for i, rec := range recs {
		fields := rec.Fields()
		out[i] = make([]wireField, len(fields))
		for j, f := range fields {
			out[i][j] = wireField(f)
		}
	}
	data, err := msgpack.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding %d records: %w", len(recs), err)
	}
	return data, nil
}

func (MsgpackCodec) Decode(data []byte) ([]*WireRecord, error) {
	var raw [][]wireField
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	recs := make([]*WireRecord, len(raw))
	for i, fields := range raw {
		rec := NewRecord()
		for _, f := range fields {
			var err error
			if f.Vector {
				err = rec.SetVector(f.Name, f.Type, f.Dims, coerceVector(f.Type, f.Value))
			} else {
				err = rec.SetScalar(f.Name, f.Type, coerceScalar(f.Type, f.Value))
			}
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
		recs[i] = rec
	}
	return recs, nil
}

// coerceScalar restores the exact Go kind for a type code; msgpack
// widens integers and floats on decode.
func coerceScalar(t Type, v any) any {
	switch t {
	case Char:
		return int8(asInt64(v))
	case Short:
		return int16(asInt64(v))
	case Int:
		return int32(asInt64(v))
	case Long:
		return asInt64(v)
	case Uchar:
		return uint8(asUint64(v))
	case Ushort:
		return uint16(asUint64(v))
	case Uint:
		return uint32(asUint64(v))
	case Ulong:
		return asUint64(v)
	case Float:
		return float32(asFloat64(v))
	case Double:
		return asFloat64(v)
	case String:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return v
}

func coerceVector(t Type, v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	switch t {
	case Char:
		out := make([]int8, len(items))
		for i, e := range items {
			out[i] = int8(asInt64(e))
		}
		return out
	case Short:
		out := make([]int16, len(items))
		for i, e := range items {
			out[i] = int16(asInt64(e))
		}
		return out
	case Int:
		out := make([]int32, len(items))
		for i, e := range items {
			out[i] = int32(asInt64(e))
		}
		return out
	case Long:
		out := make([]int64, len(items))
		for i, e := range items {
			out[i] = asInt64(e)
		}
		return out
	case Uchar:
		out := make([]uint8, len(items))
		for i, e := range items {
			out[i] = uint8(asUint64(e))
		}
		return out
	case Ushort:
		out := make([]uint16, len(items))
		for i, e := range items {
			out[i] = uint16(asUint64(e))
		}
		return out
	case Uint:
		out := make([]uint32, len(items))
		for i, e := range items {
			out[i] = uint32(asUint64(e))
		}
		return out
	case Ulong:
		out := make([]uint64, len(items))
		for i, e := range items {
			out[i] = asUint64(e)
		}
		return out
	case Float:
		out := make([]float32, len(items))
		for i, e := range items {
			out[i] = float32(asFloat64(e))
		}
		return out
	case Double:
		out := make([]float64, len(items))
		for i, e := range items {
			out[i] = asFloat64(e)
		}
		return out
	case String:
		out := make([]string, len(items))
		for i, e := range items {
			out[i], _ = e.(string)
		}
		return out
	}
	return v
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case uint:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	}
	return 0
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	case uint:
		return uint64(n)
	default:
		return uint64(asInt64(v))
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return float64(asInt64(v))
	}
}
