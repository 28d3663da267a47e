// Package dmap models the legacy SDARN DMap record layer: typed
// scalar and vector fields in insertion order, plus the declared wire
// schemas for the iqdat and rawacf products. The true DMap byte layout
// belongs to the downstream toolchain; records cross this boundary
// through a Codec.
package dmap

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// Type is a DMap data type code.
type Type int8

const (
	Char   Type = 1
	Short  Type = 2
	Int    Type = 3
	Float  Type = 4
	Double Type = 8
	String Type = 9
	Long   Type = 10
	Uchar  Type = 16
	Ushort Type = 17
	Uint   Type = 18
	Ulong  Type = 19
)

var typeNames = map[Type]string{
	Char:   "char",
	Short:  "short",
	Int:    "int",
	Float:  "float",
	Double: "double",
	String: "string",
	Long:   "long",
	Uchar:  "uchar",
	Ushort: "ushort",
	Uint:   "uint",
	Ulong:  "ulong",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int8(t))
}

// scalarOK reports whether v is the Go value kind for the type code.
func (t Type) scalarOK(v any) bool {
	switch t {
	case Char:
		_, ok := v.(int8)
		return ok
	case Short:
		_, ok := v.(int16)
		return ok
	case Int:
		_, ok := v.(int32)
		return ok
	case Float:
		_, ok := v.(float32)
		return ok
	case Double:
		_, ok := v.(float64)
		return ok
	case String:
		_, ok := v.(string)
		return ok
	case Long:
		_, ok := v.(int64)
		return ok
	case Uchar:
		_, ok := v.(uint8)
		return ok
	case Ushort:
		_, ok := v.(uint16)
		return ok
	case Uint:
		_, ok := v.(uint32)
		return ok
	case Ulong:
		_, ok := v.(uint64)
		return ok
	}
	return false
}

// vectorOK reports whether v is the flat slice kind for the type code
// and returns its length.
func (t Type) vectorOK(v any) (int, bool) {
	switch t {
	case Char:
		s, ok := v.([]int8)
		return len(s), ok
	case Short:
		s, ok := v.([]int16)
		return len(s), ok
	case Int:
		s, ok := v.([]int32)
		return len(s), ok
	case Float:
		s, ok := v.([]float32)
		return len(s), ok
	case Double:
		s, ok := v.([]float64)
		return len(s), ok
	case String:
		s, ok := v.([]string)
		return len(s), ok
	case Long:
		s, ok := v.([]int64)
		return len(s), ok
	case Uchar:
		s, ok := v.([]uint8)
		return len(s), ok
	case Ushort:
		s, ok := v.([]uint16)
		return len(s), ok
	case Uint:
		s, ok := v.([]uint32)
		return len(s), ok
	case Ulong:
		s, ok := v.([]uint64)
		return len(s), ok
	}
	return 0, false
}

// Field is one typed entry of a wire record. Vector fields carry their
// dimensions and a flat row-major slice.
type Field struct {
	Name   string  `msgpack:"name"`
	Type   Type    `msgpack:"type"`
	Vector bool    `msgpack:"vector"`
	Dims   []int32 `msgpack:"dims,omitempty"`
	Value  any     `msgpack:"value"`
}

// WireRecord is an ordered set of fields bound for one DMap record.
type WireRecord struct {
	fields *orderedmap.OrderedMap[string, Field]
}

func NewRecord() *WireRecord {
	return &WireRecord{fields: orderedmap.NewOrderedMap[string, Field]()}
}

// SetScalar adds or replaces a scalar field. The value's Go type must
// match the DMap type code.
func (r *WireRecord) SetScalar(name string, t Type, v any) error {
	if !t.scalarOK(v) {
		return fmt.Errorf("field %s: %T is not a %s scalar", name, v, t)
	}
	r.fields.Set(name, Field{Name: name, Type: t, Value: v})
	return nil
}

// SetVector adds or replaces a vector field. The flat slice length must
// equal the product of dims.
func (r *WireRecord) SetVector(name string, t Type, dims []int32, v any) error {
	n, ok := t.vectorOK(v)
	if !ok {
		return fmt.Errorf("field %s: %T is not a %s vector", name, v, t)
	}
	want := 1
	for _, d := range dims {
		want *= int(d)
	}
	if n != want {
		return fmt.Errorf("field %s: %d elements for dims %v", name, n, dims)
	}
	r.fields.Set(name, Field{Name: name, Type: t, Vector: true, Dims: dims, Value: v})
	return nil
}

func (r *WireRecord) Get(name string) (Field, bool) {
	return r.fields.Get(name)
}

// Names returns the field names in insertion order.
func (r *WireRecord) Names() []string {
	return r.fields.Keys()
}

func (r *WireRecord) Len() int { return r.fields.Len() }

// Fields returns the fields in insertion order.
func (r *WireRecord) Fields() []Field {
	out := make([]Field, 0, r.fields.Len())
	for el := r.fields.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}
