// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package edit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/value"
)

func testChain(t *testing.T, vars map[string]value.Value) *config.Chain {
	t.Helper()

	store, err := config.Create(filepath.Join(t.TempDir(), "test.config"), vars)
	require.NoError(t, err)

	return config.NewChain(config.WithLayers(store))
}

func TestResolve(t *testing.T) {
	clear := func(t *testing.T) {
		t.Setenv("MLENV_LOG_EDITOR", "")
		t.Setenv("MLENV_LOG_EDITOR_LOG", "")
	}

	t.Run("will prefer the suffixed environment variable", func(t *testing.T) {
		clear(t)
		t.Setenv("MLENV_LOG_EDITOR_LOG", "lnav")
		t.Setenv("MLENV_LOG_EDITOR", "less")

		chain := testChain(t, map[string]value.Value{
			"log.editor": value.String("vim"),
		})

		editor, err := Resolve(chain, "/tmp/train.log", "log.editor")
		require.NoError(t, err)
		require.Equal(t, "lnav", editor)
	})

	t.Run("will prefer the suffixed configuration key", func(t *testing.T) {
		clear(t)

		chain := testChain(t, map[string]value.Value{
			"log.editor":     value.String("vim"),
			"log.editor.log": value.String("lnav"),
		})

		editor, err := Resolve(chain, "/tmp/train.log", "log.editor")
		require.NoError(t, err)
		require.Equal(t, "lnav", editor)
	})

	t.Run("will fall back to the plain environment variable", func(t *testing.T) {
		clear(t)
		t.Setenv("MLENV_LOG_EDITOR", "less")

		chain := testChain(t, map[string]value.Value{
			"log.editor": value.String("vim"),
		})

		editor, err := Resolve(chain, "/tmp/train.log", "log.editor")
		require.NoError(t, err)
		require.Equal(t, "less", editor)
	})

	t.Run("will fall back to the plain configuration key", func(t *testing.T) {
		clear(t)

		chain := testChain(t, map[string]value.Value{
			"log.editor": value.String("vim"),
		})

		editor, err := Resolve(chain, "/tmp/train.log", "log.editor")
		require.NoError(t, err)
		require.Equal(t, "vim", editor)
	})

	t.Run("will fail when nothing is set", func(t *testing.T) {
		clear(t)

		chain := testChain(t, nil)

		_, err := Resolve(chain, "/tmp/train.log", "log.editor")
		var nse NotSetError
		require.ErrorAs(t, err, &nse)
		require.Equal(t, []string{"log.editor.log", "log.editor"}, nse.Keys)
	})

	t.Run("will ignore the suffix steps for bare names", func(t *testing.T) {
		clear(t)

		chain := testChain(t, nil)

		_, err := Resolve(chain, "/tmp/train", "log.editor")
		var nse NotSetError
		require.ErrorAs(t, err, &nse)
		require.Equal(t, []string{"log.editor"}, nse.Keys)
	})
}

func TestOpen(t *testing.T) {
	t.Setenv("MLENV_EDITOR", "")
	t.Setenv("MLENV_EDITOR_TXT", "")

	dir := t.TempDir()
	witness := filepath.Join(dir, "witness")
	editor := filepath.Join(dir, "editor")
	script := "#!/bin/sh\nprintf '%s' \"$1\" > " + witness + "\n"
	require.NoError(t, os.WriteFile(editor, []byte(script), 0o755))

	chain := testChain(t, map[string]value.Value{
		"editor": value.String(editor),
	})

	target := filepath.Join(dir, "notes.txt")
	require.NoError(t, Open(context.Background(), chain, target, "editor"))

	b, err := os.ReadFile(witness)
	require.NoError(t, err)
	require.Equal(t, target, string(b))
}
