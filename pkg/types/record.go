package types

import (
	"math"
	"sort"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
)

// Record is one radar integration period in site structure. Values are
// either native Go scalars or *Tensor.
type Record map[string]any

// Clone deep-copies the record. Tensors are cloned, scalars copied.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if t, ok := v.(*Tensor); ok {
			out[k] = t.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Tensor returns the named field as a tensor, or nil if absent or
// scalar.
func (r Record) Tensor(name string) *Tensor {
	t, _ := r[name].(*Tensor)
	return t
}

// RecordSet is an ordered collection of site records keyed by their
// record name. Iteration order is insertion order, which for well
// formed files is chronological.
type RecordSet struct {
	m *orderedmap.OrderedMap[string, Record]
}

func NewRecordSet() *RecordSet {
	return &RecordSet{m: orderedmap.NewOrderedMap[string, Record]()}
}

func (rs *RecordSet) Set(key string, rec Record) {
	rs.m.Set(key, rec)
}

func (rs *RecordSet) Get(key string) (Record, bool) {
	return rs.m.Get(key)
}

func (rs *RecordSet) Len() int { return rs.m.Len() }

// Keys returns the record names in insertion order.
func (rs *RecordSet) Keys() []string { return rs.m.Keys() }

// First returns the first record, or nil for an empty set.
func (rs *RecordSet) First() Record {
	el := rs.m.Front()
	if el == nil {
		return nil
	}
	return el.Value
}

// Range calls fn for each record in insertion order until fn returns an
// error, which is passed through.
func (rs *RecordSet) Range(fn func(key string, rec Record) error) error {
	for el := rs.m.Front(); el != nil; el = el.Next() {
		if err := fn(el.Key, el.Value); err != nil {
			return err
		}
	}
	return nil
}

func (rs *RecordSet) Clone() *RecordSet {
	out := NewRecordSet()
	for el := rs.m.Front(); el != nil; el = el.Next() {
		out.Set(el.Key, el.Value.Clone())
	}
	return out
}

// ArraySet is a file in array structure: one entry per field, shared
// scalars stored once and everything else as a *Tensor whose leading
// dimension ranges over records.
type ArraySet map[string]any

func (a ArraySet) Clone() ArraySet {
	out := make(ArraySet, len(a))
	for k, v := range a {
		if t, ok := v.(*Tensor); ok {
			out[k] = t.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Fields returns the field names in sorted order.
func (a ArraySet) Fields() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Tensor returns the named field as a tensor, or nil if absent or
// scalar.
func (a ArraySet) Tensor(name string) *Tensor {
	t, _ := a[name].(*Tensor)
	return t
}

// RecordKey derives a record's name from its first sequence timestamp:
// milliseconds since the epoch, truncated, rendered in decimal.
func RecordKey(sqnTimestamps *Tensor) (string, error) {
	first, err := sqnTimestamps.Float64At(0)
	if err != nil {
		return "", err
	}
	ms := int64(math.Floor(first * 1000))
	return strconv.FormatInt(ms, 10), nil
}
