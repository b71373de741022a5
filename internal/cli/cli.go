// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the mlenv command tree.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mlenv/mlenv/environment"
	"github.com/mlenv/mlenv/internal/try"

	"github.com/spf13/cobra"
)

// App is the mlenv command line application.
type App struct {
	root  *cobra.Command
	state *state
}

type appOptions struct {
	logHandler slog.Handler
	out        io.Writer
	errOut     io.Writer
}

// Option configures an App.
type Option func(*appOptions)

// LogHandler sets the slog.Handler commands log through.
//
// Default discards all records below error.
func LogHandler(h slog.Handler) Option {
	return func(o *appOptions) {
		o.logHandler = h
	}
}

// Output redirects command output, mainly for testing.
//
// Default is the process's standard streams.
func Output(out, errOut io.Writer) Option {
	return func(o *appOptions) {
		o.out = out
		o.errOut = errOut
	}
}

// New returns a fully initialized App.
func New(opts ...Option) *App {
	o := &appOptions{
		logHandler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	state := &state{
		log: slog.New(o.logHandler),
	}

	root := &cobra.Command{
		Use:   "mlenv",
		Short: "Manage machine learning environments and their models",
		Long: `mlenv manages directory-rooted machine learning environments.

An environment holds layered configuration and a sequence of numbered
model workspaces. Configuration resolves through the local layer, the
global layer, the system layer and built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			state.printer = newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), !state.noColor)
		},
	}
	root.SetOut(o.out)
	root.SetErr(o.errOut)
	root.PersistentFlags().StringVarP(&state.environ, "environ", "n", "", "path of the environment to operate on")
	root.PersistentFlags().BoolVar(&state.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		initCommand(state),
		destroyCommand(state),
		activateCommand(state),
		currentCommand(state),
		configCommand(state),
		modelCommand(state),
		logsCommand(state),
		editCommand(state),
		tensorboardCommand(state),
	)

	state.root = root
	return &App{root: root, state: state}
}

// state carries the values shared by every command.
type state struct {
	root    *cobra.Command
	environ string
	noColor bool
	printer *printer
	log     *slog.Logger
}

// locate resolves the environment a command operates on, honoring the
// --environ flag.
func (s *state) locate() (*environment.Environment, error) {
	loc, err := environment.Locator{
		Path: s.environ,
		Log:  s.log.Handler(),
	}.Resolve()
	if err != nil {
		return nil, err
	}
	return environment.Open(loc.Directory, environment.LogHandler(s.log.Handler()))
}

// Run executes the application. OS interrupts terminate commands via
// context cancellation. The returned exit code follows the error
// taxonomy of [Code].
func (a *App) Run(args ...string) int {
	err := a.execute(args)
	if err == nil {
		return 0
	}

	p := a.state.printer
	if p == nil {
		p = newPrinter(a.root.OutOrStdout(), a.root.ErrOrStderr(), !a.state.noColor)
	}
	p.Errorf("%s", err)
	return Code(err)
}

func (a *App) execute(args []string) (err error) {
	defer try.Recover(&err)

	a.root.SetArgs(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}
