// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package edit opens files in an editor resolved from the process
// environment and the configuration chain.
package edit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mlenv/mlenv/config"
)

// NotSetError is returned when no resolution step produced an editor.
type NotSetError struct {
	// Keys are the configuration keys that were consulted.
	Keys []string
}

// Error implements the error interface.
func (e NotSetError) Error() string {
	return fmt.Sprintf("no editor set, tried %s", strings.Join(e.Keys, " and "))
}

// Resolve finds the editor for path. The base key is combined with
// the path's extension so a file type can carry its own editor, and
// every key is tried first as an MLENV_ prefixed environment variable
// and then against the chain:
//
//  1. the MLENV_<KEY><EXT> environment variable
//  2. the <key><ext> configuration key
//  3. the MLENV_<KEY> environment variable
//  4. the <key> configuration key
func Resolve(cfg *config.Chain, path, key string) (string, error) {
	suffix := filepath.Ext(path)
	keyWithSuffix := key + suffix

	if suffix != "" {
		if editor := os.Getenv(variable(keyWithSuffix)); editor != "" {
			return editor, nil
		}
		if editor, ok := lookup(cfg, keyWithSuffix); ok {
			return editor, nil
		}
	}
	if editor := os.Getenv(variable(key)); editor != "" {
		return editor, nil
	}
	if editor, ok := lookup(cfg, key); ok {
		return editor, nil
	}

	keys := []string{key}
	if suffix != "" {
		keys = []string{keyWithSuffix, key}
	}
	return "", NotSetError{Keys: keys}
}

// Open resolves the editor for path and runs it attached to the
// process's standard streams.
func Open(ctx context.Context, cfg *config.Chain, path, key string) error {
	editor, err := Resolve(cfg, path, key)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// variable maps a configuration key to its environment variable
// override, MLENV_ followed by the upper cased key with dots turned
// into underscores.
func variable(key string) string {
	return "MLENV_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// lookup reads a non-empty string value from the chain.
func lookup(cfg *config.Chain, key string) (string, bool) {
	v, err := cfg.Get(key)
	if err != nil {
		return "", false
	}
	editor := v.AsString()
	if editor == "" {
		return "", false
	}
	return editor, true
}
