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

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/lifecycle"
	"github.com/mlenv/mlenv/value"
)

// isolate points every configuration override at files that do not
// exist so tests never see the machine's real layers.
func isolate(t *testing.T) {
	t.Helper()

	tmp := t.TempDir()
	t.Setenv(EnvGlobalConfig, filepath.Join(tmp, "absent.config"))
	t.Setenv(EnvSystemConfig, filepath.Join(tmp, "absent.system"))
	t.Setenv(EnvEnvironment, "")
}

func writeHook(t *testing.T, dir, name, body string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

func TestCreate(t *testing.T) {
	t.Run("will initialize the directory layout", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		env, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		require.FileExists(t, filepath.Join(dir, LocalConfigName))
		require.DirExists(t, filepath.Join(dir, "logs"))
		require.Equal(t, "proj", env.Name())
		require.Equal(t, dir, env.Directory())
	})

	t.Run("will seed the local layer with initial variables", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		env, err := Create(context.Background(), dir, map[string]value.Value{
			"model.prefix": value.String("m"),
		}, true)
		require.NoError(t, err)

		v, err := env.Config().Get("model.prefix")
		require.NoError(t, err)
		require.Equal(t, value.String("m"), v)

		settings, err := env.Settings()
		require.NoError(t, err)
		require.Equal(t, "m", settings.Model.Prefix)
	})

	t.Run("will create configured extra directories", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, map[string]value.Value{
			"env.directories": value.List(value.String("data"), value.String("src")),
			"model.prefix":    value.String("models/"),
		}, true)
		require.NoError(t, err)

		require.DirExists(t, filepath.Join(dir, "data"))
		require.DirExists(t, filepath.Join(dir, "src"))
		require.DirExists(t, filepath.Join(dir, "models"))
	})

	t.Run("will fail if the directory already belongs to an environment", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		_, err = Create(context.Background(), dir, nil, true)
		require.ErrorAs(t, err, &ExistsError{})
	})

	t.Run("will fail below an existing environment", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		_, err = Create(context.Background(), filepath.Join(dir, "nested"), nil, true)
		require.ErrorAs(t, err, &ExistsError{})
	})

	t.Run("will fail above an existing environment", func(t *testing.T) {
		isolate(t)

		parent := filepath.Join(t.TempDir(), "parent")
		_, err := Create(context.Background(), filepath.Join(parent, "child"), nil, true)
		require.NoError(t, err)

		_, err = Create(context.Background(), parent, nil, true)
		require.ErrorAs(t, err, &ExistsError{})
	})
}

func TestCreate_OnCreateHook(t *testing.T) {
	t.Run("will run the hook in the new directory", func(t *testing.T) {
		isolate(t)

		hooks := t.TempDir()
		witness := filepath.Join(hooks, "witness")
		writeHook(t, hooks, lifecycle.OnCreate, `printf '%s %s' "$(pwd)" "$1" > `+witness)

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, map[string]value.Value{
			"env.hooks": value.String(hooks),
		}, true)
		require.NoError(t, err)

		b, err := os.ReadFile(witness)
		require.NoError(t, err)
		require.Equal(t, dir+" "+dir, string(b))
	})

	t.Run("will roll back when an enforced hook fails", func(t *testing.T) {
		isolate(t)

		hooks := t.TempDir()
		writeHook(t, hooks, lifecycle.OnCreate, "exit 7")

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, map[string]value.Value{
			"env.hooks": value.String(hooks),
		}, true)
		require.ErrorAs(t, err, &HookAbortedError{})
		require.NoDirExists(t, dir)
	})

	t.Run("will proceed when an unenforced hook fails", func(t *testing.T) {
		isolate(t)

		hooks := t.TempDir()
		writeHook(t, hooks, lifecycle.OnCreate, "exit 7")

		dir := filepath.Join(t.TempDir(), "proj")
		_, err := Create(context.Background(), dir, map[string]value.Value{
			"env.hooks": value.String(hooks),
		}, false)
		require.NoError(t, err)
		require.FileExists(t, filepath.Join(dir, LocalConfigName))
	})
}

func TestEnvironment_Remove(t *testing.T) {
	t.Run("will keep the directory unless asked", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		env, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		require.NoError(t, env.Remove(context.Background(), false, true))
		require.NoFileExists(t, filepath.Join(dir, LocalConfigName))
		require.DirExists(t, dir)
	})

	t.Run("will delete the directory when asked", func(t *testing.T) {
		isolate(t)

		dir := filepath.Join(t.TempDir(), "proj")
		env, err := Create(context.Background(), dir, nil, true)
		require.NoError(t, err)

		require.NoError(t, env.Remove(context.Background(), true, true))
		require.NoDirExists(t, dir)
	})

	t.Run("will abort when an enforced on_delete hook fails", func(t *testing.T) {
		isolate(t)

		hooks := t.TempDir()
		writeHook(t, hooks, lifecycle.OnDelete, "exit 1")

		dir := filepath.Join(t.TempDir(), "proj")
		env, err := Create(context.Background(), dir, map[string]value.Value{
			"env.hooks": value.String(hooks),
		}, true)
		require.NoError(t, err)

		err = env.Remove(context.Background(), true, true)
		require.ErrorAs(t, err, &HookAbortedError{})
		require.FileExists(t, filepath.Join(dir, LocalConfigName))
	})
}

func TestEnvironment_Activate(t *testing.T) {
	t.Run("will store the pointer relative to the global file", func(t *testing.T) {
		isolate(t)

		root := t.TempDir()
		globalPath := filepath.Join(root, GlobalConfigName)
		t.Setenv(EnvGlobalConfig, globalPath)
		_, err := CreateGlobal(globalPath)
		require.NoError(t, err)

		env, err := Create(context.Background(), filepath.Join(root, "proj"), nil, true)
		require.NoError(t, err)
		require.NoError(t, env.Activate())

		global, err := config.Open(globalPath)
		require.NoError(t, err)
		v, err := global.Get(CurrentKey)
		require.NoError(t, err)
		require.Equal(t, value.String("proj"), v)
	})

	t.Run("will fail without a global configuration", func(t *testing.T) {
		isolate(t)

		env, err := Create(context.Background(), filepath.Join(t.TempDir(), "proj"), nil, true)
		require.NoError(t, err)

		err = env.Activate()
		require.ErrorAs(t, err, &config.NotFoundError{})
	})

	t.Run("deactivate will clear the pointer", func(t *testing.T) {
		isolate(t)

		root := t.TempDir()
		globalPath := filepath.Join(root, GlobalConfigName)
		t.Setenv(EnvGlobalConfig, globalPath)
		_, err := CreateGlobal(globalPath)
		require.NoError(t, err)

		env, err := Create(context.Background(), filepath.Join(root, "proj"), nil, true)
		require.NoError(t, err)
		require.NoError(t, env.Activate())

		require.NoError(t, Deactivate(root))
		global, err := config.Open(globalPath)
		require.NoError(t, err)
		require.False(t, global.Has(CurrentKey))

		// Clearing twice is fine.
		require.NoError(t, Deactivate(root))
	})
}

func TestEnvironment_LayerPrecedence(t *testing.T) {
	isolate(t)

	root := t.TempDir()
	globalPath := filepath.Join(root, GlobalConfigName)
	t.Setenv(EnvGlobalConfig, globalPath)
	global, err := CreateGlobal(globalPath)
	require.NoError(t, err)
	require.NoError(t, global.Set("editor", value.String("vim")))
	require.NoError(t, global.Set("model.summary", value.String("report")))

	env, err := Create(context.Background(), filepath.Join(root, "proj"), map[string]value.Value{
		"editor": value.String("emacs"),
	}, true)
	require.NoError(t, err)

	// Local shadows global, global shadows the defaults.
	v, err := env.Config().Get("editor")
	require.NoError(t, err)
	require.Equal(t, value.String("emacs"), v)

	v, err = env.Config().Get("model.summary")
	require.NoError(t, err)
	require.Equal(t, value.String("report"), v)

	v, err = env.Config().Get("tensorboard.port")
	require.NoError(t, err)
	require.Equal(t, value.Int(6006), v)
}

func TestEnvironment_LogPath(t *testing.T) {
	isolate(t)

	dir := filepath.Join(t.TempDir(), "proj")
	env, err := Create(context.Background(), dir, nil, true)
	require.NoError(t, err)

	path, err := env.LogPath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs", "mlenv.log"), path)

	path, err = env.LogPath("debug")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs", "debug.log"), path)

	path, err = env.LogPath("debug.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs", "debug.txt"), path)
}

func TestFind(t *testing.T) {
	isolate(t)

	dir := filepath.Join(t.TempDir(), "proj")
	_, err := Create(context.Background(), dir, nil, true)
	require.NoError(t, err)

	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	env, err := Find(sub)
	require.NoError(t, err)
	require.Equal(t, dir, env.Directory())

	_, err = Find(filepath.Dir(dir))
	require.ErrorAs(t, err, &NotFoundError{})
}
