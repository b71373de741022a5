// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package value provides the typed values stored in configuration layers
// along with their textual encoding.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindString
	KindList
	KindSet
)

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over every type a configuration layer can hold.
// The zero Value is the null value.
type Value struct {
	kind Kind

	b     bool
	i     int64
	f     float64
	c     complex128
	s     string
	items []Value
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int returns an integer Value.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float returns a floating point Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Complex returns a complex Value.
func Complex(c complex128) Value {
	return Value{kind: KindComplex, c: c}
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// List returns a list Value containing the given elements in order.
func List(elems ...Value) Value {
	return Value{kind: KindList, items: append([]Value(nil), elems...)}
}

// Set returns a set Value containing the given elements with
// duplicates removed. Insertion order is preserved.
func Set(elems ...Value) Value {
	v := Value{kind: KindSet}
	for _, e := range elems {
		v.items = appendIfAbsent(v.items, e)
	}
	return v
}

func appendIfAbsent(items []Value, e Value) []Value {
	for _, it := range items {
		if it.Equal(e) {
			return items
		}
	}
	return append(items, e)
}

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsCollection reports whether the Value supports element mutation.
func (v Value) IsCollection() bool {
	return v.kind == KindList || v.kind == KindSet
}

// AsBool returns the underlying bool. It is only meaningful for KindBool.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the underlying integer. It is only meaningful for KindInt.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the underlying float. It is only meaningful for KindFloat.
func (v Value) AsFloat() float64 { return v.f }

// AsComplex returns the underlying complex number. It is only
// meaningful for KindComplex.
func (v Value) AsComplex() complex128 { return v.c }

// AsString returns the underlying string. It is only meaningful for KindString.
func (v Value) AsString() string { return v.s }

// Elements returns a copy of the collection's elements, in order.
// It returns nil for scalar values.
func (v Value) Elements() []Value {
	if !v.IsCollection() {
		return nil
	}
	return append([]Value(nil), v.items...)
}

// Len returns the number of elements in a collection and zero otherwise.
func (v Value) Len() int {
	return len(v.items)
}

// Equal reports whether two values hold the same kind and contents.
// List comparison is order sensitive, set comparison is not.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindComplex:
		return v.c == other.c
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(v.items) != len(other.items) {
			return false
		}
		for _, e := range v.items {
			found := false
			for _, o := range other.items {
				if e.Equal(o) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return false
}

// Interface returns the native Go representation of the Value.
// Collections are returned as []any; set elements are sorted by
// their encoding so the result is deterministic.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindComplex:
		return v.c
	case KindString:
		return v.s
	case KindList:
		elems := make([]any, len(v.items))
		for i, e := range v.items {
			elems[i] = e.Interface()
		}
		return elems
	case KindSet:
		sorted := v.Elements()
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].String() < sorted[j].String()
		})
		elems := make([]any, len(sorted))
		for i, e := range sorted {
			elems[i] = e.Interface()
		}
		return elems
	}
	return nil
}

// String returns the display encoding of the Value. For the literal
// kinds it is the inverse of [Decode].
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "none"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindComplex:
		return strconv.FormatComplex(v.c, 'g', -1, 128)
	case KindString:
		return v.s
	case KindList:
		return "[" + v.joinElements() + "]"
	case KindSet:
		return "{" + v.joinElements() + "}"
	}
	return ""
}

func (v Value) joinElements() string {
	parts := make([]string, len(v.items))
	for i, e := range v.items {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// formatFloat renders a float so that it always re-decodes as a float,
// never as an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// NotCollectionError occurs when an element mutation is attempted
// on a scalar value.
type NotCollectionError struct {
	Kind Kind
}

// Error implements the error interface.
func (e NotCollectionError) Error() string {
	return fmt.Sprintf("%s value is not a collection", e.Kind)
}

// MissingElementError occurs when removing an element that a list
// does not contain.
type MissingElementError struct {
	Element Value
}

// Error implements the error interface.
func (e MissingElementError) Error() string {
	return fmt.Sprintf("element not in collection: %s", e.Element)
}

// Add returns a copy of the collection with the element appended.
// Lists keep duplicates, sets discard them.
func (v Value) Add(elem Value) (Value, error) {
	switch v.kind {
	case KindList:
		return Value{kind: KindList, items: append(v.Elements(), elem)}, nil
	case KindSet:
		return Value{kind: KindSet, items: appendIfAbsent(v.Elements(), elem)}, nil
	default:
		return Value{}, NotCollectionError{Kind: v.kind}
	}
}

// Remove returns a copy of the collection without the element.
// Removing an element a list does not contain fails, removing one a
// set does not contain is a no-op.
func (v Value) Remove(elem Value) (Value, error) {
	switch v.kind {
	case KindList:
		for i, e := range v.items {
			if e.Equal(elem) {
				items := append([]Value(nil), v.items[:i]...)
				items = append(items, v.items[i+1:]...)
				return Value{kind: KindList, items: items}, nil
			}
		}
		return Value{}, MissingElementError{Element: elem}
	case KindSet:
		items := make([]Value, 0, len(v.items))
		for _, e := range v.items {
			if !e.Equal(elem) {
				items = append(items, e)
			}
		}
		return Value{kind: KindSet, items: items}, nil
	default:
		return Value{}, NotCollectionError{Kind: v.kind}
	}
}

// Clear returns an empty collection of the same kind. The key keeps
// its collection nature, it is not deleted.
func (v Value) Clear() (Value, error) {
	switch v.kind {
	case KindList:
		return Value{kind: KindList}, nil
	case KindSet:
		return Value{kind: KindSet}, nil
	default:
		return Value{}, NotCollectionError{Kind: v.kind}
	}
}
