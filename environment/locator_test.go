// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package environment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocator_Resolve(t *testing.T) {
	t.Run("will prefer an explicit path", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		loc, err := Locator{Path: dir}.Resolve()
		require.NoError(t, err)
		require.Equal(t, MatchPath, loc.Match)
		require.Equal(t, dir, loc.Directory)
	})

	t.Run("will search upward from an explicit path", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		loc, err := Locator{Path: filepath.Join(dir, "a", "b")}.Resolve()
		require.NoError(t, err)
		require.Equal(t, MatchPath, loc.Match)
		require.Equal(t, dir, loc.Directory)
	})

	t.Run("will fail on a path outside any environment", func(t *testing.T) {
		isolate(t)

		_, err := Locator{Path: t.TempDir()}.Resolve()
		require.ErrorAs(t, err, &NotFoundError{})
	})

	t.Run("will honor the environment variable", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)
		t.Setenv(EnvEnvironment, dir)

		loc, err := Locator{WorkDir: t.TempDir()}.Resolve()
		require.NoError(t, err)
		require.Equal(t, MatchEnviron, loc.Match)
		require.Equal(t, dir, loc.Directory)
	})

	t.Run("will fail when the variable names a non-environment", func(t *testing.T) {
		isolate(t)
		t.Setenv(EnvEnvironment, t.TempDir())

		_, err := Locator{WorkDir: t.TempDir()}.Resolve()
		require.ErrorAs(t, err, &NotFoundError{})
	})

	t.Run("will search upward from the working directory", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		sub := filepath.Join(dir, "a", "b", "c")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		loc, err := Locator{WorkDir: sub}.Resolve()
		require.NoError(t, err)
		require.Equal(t, MatchWorkDir, loc.Match)
		require.Equal(t, dir, loc.Directory)
	})

	t.Run("will fall back to the current pointer", func(t *testing.T) {
		isolate(t)

		root := t.TempDir()
		globalPath := filepath.Join(root, GlobalConfigName)
		t.Setenv(EnvGlobalConfig, globalPath)
		_, err := CreateGlobal(globalPath)
		require.NoError(t, err)

		env, err := Create(context.Background(), filepath.Join(root, "proj"), nil, true)
		require.NoError(t, err)
		require.NoError(t, env.Activate())

		loc, err := Locator{WorkDir: t.TempDir()}.Resolve()
		require.NoError(t, err)
		require.Equal(t, MatchCurrent, loc.Match)
		require.Equal(t, env.Directory(), loc.Directory)
	})

	t.Run("will report an inactive environment", func(t *testing.T) {
		isolate(t)

		root := t.TempDir()
		globalPath := filepath.Join(root, GlobalConfigName)
		t.Setenv(EnvGlobalConfig, globalPath)
		_, err := CreateGlobal(globalPath)
		require.NoError(t, err)

		_, err = Locator{WorkDir: t.TempDir()}.Resolve()
		require.ErrorAs(t, err, &NotActiveError{})
	})

	t.Run("will fail without any resolution source", func(t *testing.T) {
		isolate(t)

		_, err := Locator{WorkDir: t.TempDir()}.Resolve()
		require.ErrorAs(t, err, &NotFoundError{})
	})

	t.Run("will fail when the pointer target is gone", func(t *testing.T) {
		isolate(t)

		root := t.TempDir()
		globalPath := filepath.Join(root, GlobalConfigName)
		t.Setenv(EnvGlobalConfig, globalPath)
		_, err := CreateGlobal(globalPath)
		require.NoError(t, err)

		env, err := Create(context.Background(), filepath.Join(root, "proj"), nil, true)
		require.NoError(t, err)
		require.NoError(t, env.Activate())
		require.NoError(t, os.RemoveAll(env.Directory()))

		_, err = Locator{WorkDir: t.TempDir()}.Resolve()
		require.ErrorAs(t, err, &NotFoundError{})
	})
}
