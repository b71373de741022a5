// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/mlenv/mlenv/environment"
	"github.com/mlenv/mlenv/tensorboard"

	"github.com/spf13/cobra"
)

// stateFileName records the pid of a TensorBoard started for an
// environment, stored in the environment's directory.
const stateFileName = ".mlenv.tensorboard"

func tensorboardCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tensorboard",
		Short: "Run TensorBoard over an environment's logs",
	}
	cmd.AddCommand(
		tensorboardStartCommand(s),
		tensorboardStopCommand(s),
		tensorboardStatusCommand(s),
	)
	return cmd
}

func tensorboardStartCommand(s *state) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start TensorBoard for the resolved environment",
		Long: `Start TensorBoard serving the resolved environment's directory.
Host and port default to the environment's tensorboard configuration.
The process keeps running after the command returns; stop it with
'mlenv tensorboard stop'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}
			if pid, err := runningPid(env); err == nil {
				return tensorboard.Error{
					Op:      fmt.Sprintf("already running with pid %d", pid),
					Running: true,
				}
			}

			settings, err := env.Settings()
			if err != nil {
				return err
			}
			if host == "" {
				host = settings.Tensorboard.Host
			}
			if port == 0 {
				port = settings.Tensorboard.Port
			}

			ctrl := tensorboard.New(
				tensorboard.Host(host),
				tensorboard.Port(port),
				tensorboard.LogHandler(s.log.Handler()),
			)
			// context.Background, not the command context, so the
			// process outlives this invocation.
			if err := ctrl.Start(context.Background(), env.Directory()); err != nil {
				return err
			}

			pid := ctrl.Pid()
			err = os.WriteFile(stateFile(env), []byte(strconv.Itoa(pid)+"\n"), 0o644)
			if err != nil {
				ctrl.Stop()
				return err
			}
			s.printer.Printf("tensorboard running on %s:%d with pid %d", host, port, pid)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "address to bind to")
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on")
	return cmd
}

func tensorboardStopCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the environment's TensorBoard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			pid, err := runningPid(env)
			if err != nil {
				os.Remove(stateFile(env))
				return err
			}
			if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
				return tensorboard.Error{Op: "stop", Running: true, Cause: err}
			}

			os.Remove(stateFile(env))
			s.printer.Printf("stopped tensorboard")
			return nil
		},
	}
}

func tensorboardStatusCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the environment's TensorBoard is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			pid, err := runningPid(env)
			if err != nil {
				s.printer.Printf("not running")
				return nil
			}
			s.printer.Printf("running with pid %d", pid)
			return nil
		},
	}
}

func stateFile(env *environment.Environment) string {
	return filepath.Join(env.Directory(), stateFileName)
}

// runningPid reads the recorded pid and verifies the process is
// alive.
func runningPid(env *environment.Environment) (int, error) {
	b, err := os.ReadFile(stateFile(env))
	if err != nil {
		return 0, tensorboard.Error{Op: "not running", Cause: err}
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, tensorboard.Error{Op: "not running", Cause: err}
	}
	if err := syscall.Kill(pid, 0); err != nil {
		return 0, tensorboard.Error{Op: "not running", Cause: err}
	}
	return pid, nil
}
