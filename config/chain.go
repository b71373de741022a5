// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"sort"

	"github.com/mlenv/mlenv/value"
)

// ErrNoLayers occurs when writing through a chain that has no
// file-backed layer to write to.
var ErrNoLayers = errors.New("config: chain has no writable layer")

// Chain is the ordered configuration resolution over a list of
// layers, most specific first, terminated by an immutable table of
// built-in defaults. The layer list is assembled once at open time;
// resolution is a pure read path over it.
type Chain struct {
	layers  []*Store
	builtin map[string]value.Value
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLayers appends file-backed layers in resolution order, most
// specific first.
func WithLayers(layers ...*Store) ChainOption {
	return func(c *Chain) {
		for _, l := range layers {
			if l != nil {
				c.layers = append(c.layers, l)
			}
		}
	}
}

// WithBuiltin sets the table of built-in defaults terminating the chain.
func WithBuiltin(defaults map[string]value.Value) ChainOption {
	return func(c *Chain) {
		c.builtin = defaults
	}
}

// NewChain assembles a resolution chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Primary returns the most specific layer, the one all writes target.
// It returns nil for a chain of built-ins only.
func (c *Chain) Primary() *Store {
	if len(c.layers) == 0 {
		return nil
	}
	return c.layers[0]
}

// Get returns the value from the most specific layer defining key.
// The first layer defining the key wins; built-in defaults are
// consulted last. It fails with [KeyNotSetError] when no layer
// defines the key.
func (c *Chain) Get(key string) (value.Value, error) {
	for _, l := range c.layers {
		v, err := l.Get(key)
		if err == nil {
			return v, nil
		}
	}

	v, ok := c.builtin[key]
	if !ok {
		return value.Value{}, KeyNotSetError{Key: key}
	}
	return v, nil
}

// Has reports whether any layer, including built-ins, defines the key.
func (c *Chain) Has(key string) bool {
	_, err := c.Get(key)
	return err == nil
}

// Set writes the key into the most specific layer.
func (c *Chain) Set(key string, v value.Value) error {
	primary := c.Primary()
	if primary == nil {
		return ErrNoLayers
	}
	return primary.Set(key, v)
}

// Delete removes the key from the most specific layer only. Defaults
// layers are read-only from the chain's perspective: the delete fails
// with [KeyNotSetError] unless the primary layer defines the key
// directly, even when a deeper layer does.
func (c *Chain) Delete(key string) error {
	primary := c.Primary()
	if primary == nil {
		return ErrNoLayers
	}
	return primary.Delete(key)
}

// SetDefault writes the key only if it is not already defined
// anywhere in the chain.
func (c *Chain) SetDefault(key string, v value.Value) error {
	if c.Has(key) {
		return nil
	}
	return c.Set(key, v)
}

// AddTo appends an element to the collection stored at key, writing
// the result back through the most specific layer. It fails with
// [KeyNotSetError] when the key is unset and with
// [value.NotCollectionError] when the current value is a scalar.
func (c *Chain) AddTo(key string, elem value.Value) error {
	cur, err := c.Get(key)
	if err != nil {
		return err
	}

	next, err := cur.Add(elem)
	if err != nil {
		return err
	}
	return c.Set(key, next)
}

// RemoveFrom removes an element from the collection stored at key,
// writing the result back through the most specific layer.
func (c *Chain) RemoveFrom(key string, elem value.Value) error {
	cur, err := c.Get(key)
	if err != nil {
		return err
	}

	next, err := cur.Remove(elem)
	if err != nil {
		return err
	}
	return c.Set(key, next)
}

// ClearCollection empties the collection stored at key. The key keeps
// an empty collection of the same kind, it is not deleted.
func (c *Chain) ClearCollection(key string) error {
	cur, err := c.Get(key)
	if err != nil {
		return err
	}

	next, err := cur.Clear()
	if err != nil {
		return err
	}
	return c.Set(key, next)
}

// Save persists the most specific layer. It is only needed when that
// layer's autosave is disabled.
func (c *Chain) Save() error {
	primary := c.Primary()
	if primary == nil {
		return ErrNoLayers
	}
	return primary.Save()
}

// Merged returns the chain-wide mapping, de-duplicated by key with
// the most specific definition winning.
func (c *Chain) Merged() map[string]value.Value {
	merged := make(map[string]value.Value, len(c.builtin))
	for k, v := range c.builtin {
		merged[k] = v
	}
	for i := len(c.layers) - 1; i >= 0; i-- {
		for k, v := range c.layers[i].Variables() {
			merged[k] = v
		}
	}
	return merged
}

// Keys returns every key defined anywhere in the chain, sorted.
func (c *Chain) Keys() []string {
	merged := c.Merged()
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
