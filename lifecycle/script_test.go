// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()

	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
}

func TestScriptHook_Execute(t *testing.T) {
	t.Run("skips when no hooks directory is configured", func(t *testing.T) {
		res := Script("", OnCreate).Execute(context.Background())
		require.Equal(t, Skipped, res.Outcome)
		require.NoError(t, res.Err)
	})

	t.Run("skips when the script is absent", func(t *testing.T) {
		res := Script(t.TempDir(), OnCreate).Execute(context.Background())
		require.Equal(t, Skipped, res.Outcome)
	})

	t.Run("succeeds on a zero exit code", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, OnCreate, "exit 0")

		res := Script(dir, OnCreate).Execute(context.Background())
		require.Equal(t, Success, res.Outcome)
		require.NoError(t, res.Err)
	})

	t.Run("fails on a non-zero exit code", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, dir, OnDelete, "exit 3")

		res := Script(dir, OnDelete).Execute(context.Background())
		require.Equal(t, Failed, res.Outcome)

		var hookErr HookError
		require.ErrorAs(t, res.Err, &hookErr)
		require.Equal(t, OnDelete, hookErr.Name)
	})

	t.Run("runs with the configured working directory and args", func(t *testing.T) {
		dir := t.TempDir()
		workDir := t.TempDir()
		writeScript(t, dir, OnCreate, `printf '%s %s' "$(pwd)" "$1" > witness`)

		res := Script(dir, OnCreate, WorkDir(workDir), Args("model7")).Execute(context.Background())
		require.Equal(t, Success, res.Outcome)

		b, err := os.ReadFile(filepath.Join(workDir, "witness"))
		require.NoError(t, err)
		require.Equal(t, workDir+" model7", string(b))
	})
}

func TestResult_Enforce(t *testing.T) {
	failure := Result{Outcome: Failed, Err: HookError{Name: OnCreate}}

	require.Error(t, failure.Enforce(true))
	require.NoError(t, failure.Enforce(false))
	require.NoError(t, Result{Outcome: Success}.Enforce(true))
	require.NoError(t, Result{Outcome: Skipped}.Enforce(true))
}

func TestMultiHook(t *testing.T) {
	t.Run("keeps running after a failure", func(t *testing.T) {
		var ran []int
		failed := errors.New("hook failed")

		hook := MultiHook(
			HookFunc(func(context.Context) error {
				ran = append(ran, 1)
				return failed
			}),
			HookFunc(func(context.Context) error {
				ran = append(ran, 2)
				return nil
			}),
		)

		err := hook.Run(context.Background())
		require.ErrorIs(t, err, failed)
		require.Equal(t, []int{1, 2}, ran)
	})

	t.Run("joins every failure", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")

		err := MultiHook(
			HookFunc(func(context.Context) error { return first }),
			HookFunc(func(context.Context) error { return second }),
		).Run(context.Background())

		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
	})
}
