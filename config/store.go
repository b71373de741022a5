// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config implements the layered key/value stores that make up
// an environment's configuration: a Store is one persisted layer, a
// Chain is the ordered resolution over layers.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mlenv/mlenv/internal/try"
	"github.com/mlenv/mlenv/value"
)

// KeyNotSetError occurs when a key is not defined at any consulted layer.
type KeyNotSetError struct {
	Key string
}

// Error implements the error interface.
func (e KeyNotSetError) Error() string {
	return fmt.Sprintf("key not set: %s", e.Key)
}

// ExistsError occurs when creating a configuration file that already exists.
type ExistsError struct {
	Path string
}

// Error implements the error interface.
func (e ExistsError) Error() string {
	return fmt.Sprintf("configuration already exists: %s", e.Path)
}

// NotFoundError occurs when a configuration file cannot be located.
type NotFoundError struct {
	Level string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s configuration not found", e.Level)
}

// InvalidError occurs when a configuration file does not contain a
// single flat JSON object.
type InvalidError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e InvalidError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidError) Unwrap() error {
	return e.Cause
}

// Store is a single persisted key/value layer backed by one JSON file.
// Keys are dotted identifiers and values are [value.Value]s. Saving
// always rewrites the whole file; there is no locking, so concurrent
// external writers resolve last-writer-wins.
type Store struct {
	path      string
	variables map[string]value.Value
	autosave  bool
}

// StoreOption configures a Store during Open.
type StoreOption func(*Store)

// WithAutosave controls whether every mutation persists immediately.
// Autosave is enabled by default; disabling it lets callers batch a
// read-modify-write sequence and call Save once.
func WithAutosave(enabled bool) StoreOption {
	return func(s *Store) {
		s.autosave = enabled
	}
}

// Create writes a new configuration file holding the given variables
// and returns the layer backed by it. It fails with [ExistsError] if
// the file already exists.
func Create(path string, variables map[string]value.Value) (*Store, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return nil, ExistsError{Path: path}
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	if variables == nil {
		variables = make(map[string]value.Value)
	}
	s := &Store{path: path, variables: variables, autosave: true}
	err = s.Save()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads the layer persisted at path.
func Open(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path:      path,
		variables: make(map[string]value.Value),
		autosave:  true,
	}
	for _, opt := range opts {
		opt(s)
	}

	err := s.Load()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Filepath returns the on-disk location of the layer.
func (s *Store) Filepath() string {
	return s.path
}

// Autosave reports whether mutations persist immediately.
func (s *Store) Autosave() bool {
	return s.autosave
}

// SetAutosave toggles immediate persistence of mutations.
func (s *Store) SetAutosave(enabled bool) {
	s.autosave = enabled
}

// Load replaces the in-memory variables with the file contents.
func (s *Store) Load() (err error) {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer try.Close(&err, f)

	b, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	variables := make(map[string]value.Value)
	err = json.Unmarshal(b, &variables)
	if err != nil {
		return InvalidError{Path: s.path, Cause: err}
	}

	s.variables = variables
	return nil
}

// Save serializes the layer to its file. The write is a whole-file
// rewrite through a temporary file and rename, so a crash can lose
// unsaved in-memory mutations but never corrupts individual keys.
func (s *Store) Save() (err error) {
	b, err := json.MarshalIndent(s.variables, "", "    ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(b)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// Get returns the value for key defined directly in this layer. It
// never consults other layers; chain-wide lookup belongs to [Chain].
func (s *Store) Get(key string) (value.Value, error) {
	v, ok := s.variables[key]
	if !ok {
		return value.Value{}, KeyNotSetError{Key: key}
	}
	return v, nil
}

// Has reports whether the key is defined directly in this layer.
func (s *Store) Has(key string) bool {
	_, ok := s.variables[key]
	return ok
}

// Set writes the key into this layer, persisting immediately when
// autosave is enabled.
func (s *Store) Set(key string, v value.Value) error {
	s.variables[key] = v
	if s.autosave {
		return s.Save()
	}
	return nil
}

// Delete removes the key from this layer only. It fails with
// [KeyNotSetError] when the layer does not define the key directly,
// even if another layer in a chain does.
func (s *Store) Delete(key string) error {
	_, ok := s.variables[key]
	if !ok {
		return KeyNotSetError{Key: key}
	}

	delete(s.variables, key)
	if s.autosave {
		return s.Save()
	}
	return nil
}

// Keys returns the keys defined directly in this layer, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.variables))
	for k := range s.variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Variables returns a copy of this layer's directly defined mapping.
func (s *Store) Variables() map[string]value.Value {
	m := make(map[string]value.Value, len(s.variables))
	for k, v := range s.variables {
		m[k] = v
	}
	return m
}

// Len returns the number of directly defined keys.
func (s *Store) Len() int {
	return len(s.variables)
}
