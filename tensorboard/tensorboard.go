// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tensorboard supervises a TensorBoard process serving an
// environment's logs.
package tensorboard

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mlenv/mlenv/pkg/slogfield"
)

// Error reports a failed controller operation together with whether a
// process is running afterwards.
type Error struct {
	// Op names the failed operation.
	Op string

	// Running reports whether a process is running despite the failure.
	Running bool

	// Cause is the underlying failure, if any.
	Cause error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("tensorboard: %s", e.Op)
	}
	return fmt.Sprintf("tensorboard: %s: %s", e.Op, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e Error) Unwrap() error {
	return e.Cause
}

// Controller supervises at most one TensorBoard process at a time.
// All methods are safe for concurrent use.
type Controller struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	done      chan struct{}
	args      []string
	suspended []string

	command        string
	host           string
	port           int
	reloadInterval int
	startupWait    time.Duration
	log            *slog.Logger
}

// Option configures a [Controller].
type Option func(*Controller)

// Command sets the executable launched for every start.
//
// Default is "tensorboard".
func Command(name string) Option {
	return func(c *Controller) {
		c.command = name
	}
}

// Host sets the address TensorBoard binds to.
//
// Default is "127.0.0.1".
func Host(host string) Option {
	return func(c *Controller) {
		c.host = host
	}
}

// Port sets the port TensorBoard listens on.
//
// Default is 6006.
func Port(port int) Option {
	return func(c *Controller) {
		c.port = port
	}
}

// ReloadInterval sets how often TensorBoard rescans its log
// directory, in seconds.
//
// Default is 10.
func ReloadInterval(seconds int) Option {
	return func(c *Controller) {
		c.reloadInterval = seconds
	}
}

// LogHandler sets the slog.Handler the controller logs through.
//
// Default is the handler of slog.Default.
func LogHandler(h slog.Handler) Option {
	return func(c *Controller) {
		c.log = slog.New(h)
	}
}

// New returns a controller with no process running.
func New(opts ...Option) *Controller {
	c := &Controller{
		command:        "tensorboard",
		host:           "127.0.0.1",
		port:           6006,
		reloadInterval: 10,
		startupWait:    200 * time.Millisecond,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Running reports whether a supervised process is alive.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running()
}

func (c *Controller) running() bool {
	if c.cmd == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Pid reports the process id of the supervised process, or 0 when
// nothing is running.
func (c *Controller) Pid() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running() {
		return 0
	}
	return c.cmd.Process.Pid
}

// Status describes the supervised process for display.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running() {
		return "not running"
	}
	return "running: " + c.command + " " + strings.Join(c.args, " ")
}

// Start launches TensorBoard serving logDir. Extra arguments are
// appended after the configured ones; an extra argument naming a flag
// the controller would set suppresses the controller's value. An
// Error with Running set is returned when a process is already
// supervised, and one with Running unset when the process exits
// during startup.
func (c *Controller) Start(ctx context.Context, logDir string, extra ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running() {
		return Error{Op: "already running", Running: true}
	}

	args := extra
	if !slices.Contains(args, "--logdir") {
		args = append(args, "--logdir", logDir)
	}
	if !slices.Contains(args, "--host") {
		args = append(args, "--host", c.host)
	}
	if !slices.Contains(args, "--port") {
		args = append(args, "--port", strconv.Itoa(c.port))
	}
	if !slices.Contains(args, "--reload_interval") {
		args = append(args, "--reload_interval", strconv.Itoa(c.reloadInterval))
	}
	return c.launch(ctx, args)
}

// launch spawns the process and verifies it survives startup. The
// caller must hold the mutex.
func (c *Controller) launch(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.command, args...)

	c.log.Debug("starting tensorboard",
		slogfield.String("command", c.command),
		slogfield.Strings("args", args),
	)
	if err := cmd.Start(); err != nil {
		return Error{Op: "start", Cause: err}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		cmd.Wait()
	}()

	select {
	case <-done:
		return Error{Op: "exited during startup"}
	case <-time.After(c.startupWait):
	}

	c.cmd = cmd
	c.done = done
	c.args = args
	return nil
}

// Stop terminates the supervised process. Stopping with nothing
// running is not an error.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop()
}

// stop terminates the process and waits for it to go away. The caller
// must hold the mutex.
func (c *Controller) stop() error {
	if !c.running() {
		return nil
	}

	c.log.Debug("stopping tensorboard")
	if err := c.cmd.Process.Kill(); err != nil {
		return Error{Op: "stop", Running: true, Cause: err}
	}
	<-c.done
	c.cmd = nil
	c.done = nil
	return nil
}

// Suspend remembers the running configuration and terminates the
// process so a later [Controller.Resume] can bring it back.
// Suspending with nothing running is not an error.
func (c *Controller) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running() {
		return nil
	}

	c.suspended = slices.Clone(c.args)
	return c.stop()
}

// Resume relaunches a suspended process with its remembered
// configuration. With purge set, orphaned data purging is switched on
// for the relaunch; otherwise it is switched off. Resuming with
// nothing suspended fails unless a process is already running.
func (c *Controller) Resume(ctx context.Context, purge bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running() {
		return nil
	}
	if c.suspended == nil {
		return Error{Op: "nothing to resume"}
	}

	args := slices.Clone(c.suspended)
	args = slices.DeleteFunc(args, func(arg string) bool {
		return arg == "--purge_orphaned_data" || arg == "--nopurge_orphaned_data"
	})
	if purge {
		args = append(args, "--purge_orphaned_data")
	} else {
		args = append(args, "--nopurge_orphaned_data")
	}

	c.suspended = nil
	return c.launch(ctx, args)
}

// Restart suspends and resumes the supervised process, purging
// orphaned data on the way back up. An Error with Running unset is
// returned when nothing is running.
func (c *Controller) Restart(ctx context.Context) error {
	if !c.Running() {
		return Error{Op: "not running"}
	}
	if err := c.Suspend(); err != nil {
		return err
	}
	return c.Resume(ctx, true)
}

// Suspended runs fn with the supervised process suspended, resuming
// it afterwards. When nothing is running, fn runs and no resume
// happens.
func (c *Controller) Suspended(ctx context.Context, purge bool, fn func() error) error {
	wasRunning := c.Running()
	if wasRunning {
		if err := c.Suspend(); err != nil {
			return err
		}
	}

	fnErr := fn()
	if !wasRunning {
		return fnErr
	}
	if err := c.Resume(ctx, purge); err != nil {
		if fnErr != nil {
			return fmt.Errorf("%w: %w", fnErr, err)
		}
		return err
	}
	return fnErr
}
