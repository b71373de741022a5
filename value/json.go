// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalJSON implements the [json.Marshaler] interface.
//
// Scalars map to their native JSON types. Lists map to arrays. JSON
// has no set type, so sets map to objects whose keys are the encoded
// elements and whose values are null; the empty set round-trips as {}.
// Complex numbers are not representable in JSON and persist as their
// display encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		// keep a decimal point so the value reloads as a float
		return []byte(formatFloat(v.f)), nil
	case KindComplex:
		return json.Marshal(v.String())
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		elems := make([]json.RawMessage, len(v.items))
		for i, e := range v.items {
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			elems[i] = b
		}
		return json.Marshal(elems)
	case KindSet:
		obj := make(map[string]any, len(v.items))
		for _, e := range v.items {
			obj[e.String()] = nil
		}
		return json.Marshal(obj)
	}
	return nil, fmt.Errorf("unknown value kind: %d", v.kind)
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	err := dec.Decode(&raw)
	if err != nil {
		return err
	}

	decoded, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			i, err := x.Int64()
			if err == nil {
				return Int(i), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case string:
		return String(x), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{kind: KindList, items: elems}, nil
	case map[string]any:
		elems := make([]Value, 0, len(x))
		for k := range x {
			elems = appendIfAbsent(elems, Decode(k))
		}
		return Value{kind: KindSet, items: elems}, nil
	default:
		return Value{}, fmt.Errorf("unsupported json value: %T", raw)
	}
}
