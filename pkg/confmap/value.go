package confmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies the dynamic type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindMap:
		return "mapping"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a config value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	m    *Mapping
	l    []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Map returns a nested mapping value. A nil mapping is stored as empty.
func Map(m *Mapping) Value {
	if m == nil {
		m = New()
	}
	return Value{kind: KindMap, m: m}
}

// List returns a list value.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, l: items}
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsMap returns the nested mapping held by v. The mapping is shared, not copied.
func (v Value) AsMap() (*Mapping, bool) { return v.m, v.kind == KindMap }

// AsList returns the items held by v. The slice is shared, not copied.
func (v Value) AsList() ([]Value, bool) { return v.l, v.kind == KindList }

// Equal reports whether v and o hold the same kind and deeply equal contents.
// Integers and floats are never equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindBool:
		return v.b == o.b
	case KindMap:
		return v.m.Equal(o.m)
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindMap:
		return Map(v.m.Clone())
	case KindList:
		items := make([]Value, len(v.l))
		for i, item := range v.l {
			items[i] = item.Clone()
		}
		return List(items...)
	default:
		return v
	}
}

// Any converts v to plain Go values: nil, string, int64, float64, bool,
// map[string]any or []any.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindMap:
		return v.m.ToMap()
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// String renders v for humans. Strings are returned unquoted.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindMap:
		parts := make([]string, 0, v.m.Len())
		for _, k := range v.m.Keys() {
			item, _ := v.m.Get(k)
			parts = append(parts, k+": "+item.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindList:
		parts := make([]string, len(v.l))
		for i, item := range v.l {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}

// FromAny converts a decoder's output into a Value. Supported inputs are nil,
// strings, booleans, all Go integer and float types, map[string]any,
// []any and Values themselves.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Mapping:
		return Map(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case map[string]any:
		m, err := FromMap(t)
		if err != nil {
			return Value{}, err
		}
		return Map(m), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "index %d", i)
			}
			items[i] = v
		}
		return List(items...), nil
	case []map[string]any:
		items := make([]Value, len(t))
		for i, item := range t {
			m, err := FromMap(item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "index %d", i)
			}
			items[i] = Map(m)
		}
		return List(items...), nil
	default:
		return Value{}, errors.Newf("unsupported value type %T", x)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, errors.Newf("integer %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// GoString supports %#v in test failure output.
func (v Value) GoString() string {
	return fmt.Sprintf("confmap.Value{%s: %s}", v.kind, v.String())
}
