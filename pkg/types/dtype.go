package types

import "math"

// DType identifies the element type of a scalar field or tensor field.
type DType int

const (
	DTypeUnknown DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	String
)

var dtypeNames = map[DType]string{
	DTypeUnknown: "unknown",
	Bool:         "bool",
	Int8:         "int8",
	Int16:        "int16",
	Int32:        "int32",
	Int64:        "int64",
	Uint8:        "uint8",
	Uint16:       "uint16",
	Uint32:       "uint32",
	Uint64:       "uint64",
	Float32:      "float32",
	Float64:      "float64",
	Complex64:    "complex64",
	String:       "string",
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return "unknown"
}

// ParseDType is the inverse of String. Returns DTypeUnknown for
// unrecognized names.
func ParseDType(name string) DType {
	for d, n := range dtypeNames {
		if n == name {
			return d
		}
	}
	return DTypeUnknown
}

// DTypeOf reports the DType of a runtime scalar value. Tensors and any
// other non-scalar value map to DTypeUnknown.
func DTypeOf(v any) DType {
	switch v.(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case string:
		return String
	default:
		return DTypeUnknown
	}
}

// Sentinel returns the fill value marking padded-but-unused cells for the
// dtype: NaN for floating kinds, the bit pattern of -1 for integer kinds.
// This is the single sentinel policy used by every padding allocation.
func (d DType) Sentinel() any {
	switch d {
	case Bool:
		return false
	case Int8:
		return int8(-1)
	case Int16:
		return int16(-1)
	case Int32:
		return int32(-1)
	case Int64:
		return int64(-1)
	case Uint8:
		return ^uint8(0)
	case Uint16:
		return ^uint16(0)
	case Uint32:
		return ^uint32(0)
	case Uint64:
		return ^uint64(0)
	case Float32:
		return float32(math.NaN())
	case Float64:
		return math.NaN()
	case Complex64:
		return complex(float32(math.NaN()), float32(math.NaN()))
	case String:
		return ""
	default:
		return nil
	}
}

// IsFloat reports whether the dtype is a floating-point or complex kind,
// where the sentinel is NaN rather than -1.
func (d DType) IsFloat() bool {
	switch d {
	case Float32, Float64, Complex64:
		return true
	}
	return false
}
