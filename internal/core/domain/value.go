package domain

import (
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	// KindInvalid is the zero Value.
	KindInvalid ValueKind = iota
	// KindBool holds a boolean.
	KindBool
	// KindInt holds a signed 64-bit integer.
	KindInt
	// KindFloat holds a 64-bit float.
	KindFloat
	// KindString holds a string.
	KindString
	// KindReference holds the identity of another object.
	KindReference
	// KindArray holds an ordered list of values.
	KindArray
)

var kindNames = map[ValueKind]string{
	KindInvalid:   "invalid",
	KindBool:      "bool",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindReference: "reference",
	KindArray:     "array",
}

// String returns the lower-case kind name used in text encodings and configuration.
func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// ParseValueKind is the inverse of ValueKind.String.
func ParseValueKind(s string) (ValueKind, bool) {
	for kind, name := range kindNames {
		if kind != KindInvalid && name == s {
			return kind, true
		}
	}
	return KindInvalid, false
}

// Value is an immutable typed property value.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	ref  Identity
	arr  []Value
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Reference returns a value referring to another object.
func Reference(id Identity) Value { return Value{kind: KindReference, ref: id} }

// Array returns an array value holding a copy of elems.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: append([]Value(nil), elems...)}
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the string payload.
func (v Value) AsString() string { return v.s }

// AsReference returns the referenced identity.
func (v Value) AsReference() Identity { return v.ref }

// Elems returns a copy of the array payload.
func (v Value) Elems() []Value { return append([]Value(nil), v.arr...) }

// Len returns the number of array elements.
func (v Value) Len() int { return len(v.arr) }

// Equal reports deep equality, including the variant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindReference:
		return v.ref == o.ref
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// mapReferences returns v with every reference (including those nested in arrays)
// passed through fn.
func (v Value) mapReferences(fn func(Identity) Identity) Value {
	switch v.kind {
	case KindReference:
		return Reference(fn(v.ref))
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.mapReferences(fn)
		}
		return Value{kind: KindArray, arr: out}
	default:
		return v
	}
}

// references calls fn for every reference held by v.
func (v Value) references(fn func(Identity)) {
	switch v.kind {
	case KindReference:
		fn(v.ref)
	case KindArray:
		for _, e := range v.arr {
			e.references(fn)
		}
	}
}

// String returns a human readable rendering used in logs and test failures.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindReference:
		return "&" + v.ref.String()
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}
