// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tensorboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTensorboard writes an executable standing in for the real
// binary and returns its path.
func fakeTensorboard(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tensorboard")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestController_Start(t *testing.T) {
	t.Run("will supervise the launched process", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")))
		t.Cleanup(func() { c.Stop() })

		require.NoError(t, c.Start(context.Background(), "/tmp/logs"))
		require.True(t, c.Running())
		require.Contains(t, c.Status(), "--logdir /tmp/logs")
		require.Contains(t, c.Status(), "--port 6006")
	})

	t.Run("will fail when already running", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")))
		t.Cleanup(func() { c.Stop() })

		require.NoError(t, c.Start(context.Background(), "/tmp/logs"))

		err := c.Start(context.Background(), "/tmp/logs")
		var terr Error
		require.ErrorAs(t, err, &terr)
		require.True(t, terr.Running)
	})

	t.Run("will fail when the process dies during startup", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "exit 1")))

		err := c.Start(context.Background(), "/tmp/logs")
		var terr Error
		require.ErrorAs(t, err, &terr)
		require.False(t, terr.Running)
		require.False(t, c.Running())
	})

	t.Run("will not duplicate caller supplied flags", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")), Port(7007))
		t.Cleanup(func() { c.Stop() })

		require.NoError(t, c.Start(context.Background(), "/tmp/logs", "--port", "9999"))
		require.Contains(t, c.Status(), "--port 9999")
		require.NotContains(t, c.Status(), "7007")
	})
}

func TestController_Stop(t *testing.T) {
	c := New(Command(fakeTensorboard(t, "sleep 30")))

	// Stopping with nothing running is fine.
	require.NoError(t, c.Stop())

	require.NoError(t, c.Start(context.Background(), "/tmp/logs"))
	require.NoError(t, c.Stop())
	require.False(t, c.Running())
	require.Equal(t, "not running", c.Status())
}

func TestController_SuspendResume(t *testing.T) {
	t.Run("will relaunch with the remembered configuration", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")), Port(7007))
		t.Cleanup(func() { c.Stop() })

		require.NoError(t, c.Start(context.Background(), "/tmp/logs"))
		require.NoError(t, c.Suspend())
		require.False(t, c.Running())

		require.NoError(t, c.Resume(context.Background(), false))
		require.True(t, c.Running())
		require.Contains(t, c.Status(), "--port 7007")
		require.Contains(t, c.Status(), "--nopurge_orphaned_data")
	})

	t.Run("will purge orphaned data when asked", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")))
		t.Cleanup(func() { c.Stop() })

		require.NoError(t, c.Start(context.Background(), "/tmp/logs"))
		require.NoError(t, c.Restart(context.Background()))
		require.Contains(t, c.Status(), "--purge_orphaned_data")
	})

	t.Run("will fail with nothing to resume", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")))

		var terr Error
		require.ErrorAs(t, c.Resume(context.Background(), false), &terr)
	})
}

func TestController_Suspended(t *testing.T) {
	t.Run("will resume after the callback", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")))
		t.Cleanup(func() { c.Stop() })

		require.NoError(t, c.Start(context.Background(), "/tmp/logs"))

		ran := false
		err := c.Suspended(context.Background(), false, func() error {
			ran = true
			require.False(t, c.Running())
			return nil
		})
		require.NoError(t, err)
		require.True(t, ran)
		require.True(t, c.Running())
	})

	t.Run("will not resume when nothing was running", func(t *testing.T) {
		c := New(Command(fakeTensorboard(t, "sleep 30")))

		sentinel := errors.New("callback failed")
		err := c.Suspended(context.Background(), false, func() error {
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)
		require.False(t, c.Running())
	})
}
