// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mlenv/mlenv/value"
)

// KeyShadowedError occurs when a dotted key names both a scalar and a
// group, e.g. "model" and "model.prefix" defined together.
type KeyShadowedError struct {
	Key string
}

// Error implements the error interface.
func (e KeyShadowedError) Error() string {
	return fmt.Sprintf("key is both a value and a group: %s", e.Key)
}

// Unmarshal decodes the merged chain into v. Dotted keys become
// nested fields: "model.prefix" populates a field tagged
// `config:"prefix"` inside a struct field tagged `config:"model"`.
func (c *Chain) Unmarshal(v any) error {
	nested, err := nest(c.Merged())
	if err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Result:           v,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(nested)
}

func nest(merged map[string]value.Value) (map[string]any, error) {
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		m := root
		for i, part := range parts[:len(parts)-1] {
			child, ok := m[part]
			if !ok {
				next := make(map[string]any)
				m[part] = next
				m = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				return nil, KeyShadowedError{Key: strings.Join(parts[:i+1], ".")}
			}
			m = next
		}

		leaf := parts[len(parts)-1]
		if _, ok := m[leaf].(map[string]any); ok {
			return nil, KeyShadowedError{Key: key}
		}
		m[leaf] = merged[key].Interface()
	}
	return root, nil
}
