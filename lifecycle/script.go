// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mlenv/mlenv/pkg/slogfield"
)

// Hook script names, by convention.
const (
	OnCreate = "on_create"
	OnDelete = "on_delete"
)

// Outcome classifies how a hook execution ended.
type Outcome int

const (
	// Success means the script ran and exited zero.
	Success Outcome = iota
	// Skipped means no script was configured or present.
	Skipped
	// Failed means the script could not be started or exited non-zero.
	Failed
)

// String implements the [fmt.Stringer] interface.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// HookError occurs when a lifecycle script errors or exits non-zero.
type HookError struct {
	Name  string
	Path  string
	Cause error
}

// Error implements the error interface.
func (e HookError) Error() string {
	return fmt.Sprintf("hook %s failed: %s: %s", e.Name, e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e HookError) Unwrap() error {
	return e.Cause
}

// Result is the typed outcome of one hook execution. The caller owns
// any rollback policy; Result only reports what happened.
type Result struct {
	Outcome Outcome
	Err     error
}

// Enforce translates the result into the caller's enforcement policy:
// a Failed result returns its error when enforcement is enabled and
// is ignored otherwise.
func (r Result) Enforce(enforce bool) error {
	if r.Outcome == Failed && enforce {
		return r.Err
	}
	return nil
}

// ScriptHook locates and executes one lifecycle script. The hooks
// directory comes from configuration; an unset directory or a missing
// script is not an error, the hook is simply skipped.
type ScriptHook struct {
	dir     string
	name    string
	workDir string
	args    []string
	log     *slog.Logger
}

// ScriptOption configures a [ScriptHook].
type ScriptOption func(*ScriptHook)

// WorkDir sets the working directory the script runs in, normally the
// entity directory.
func WorkDir(dir string) ScriptOption {
	return func(h *ScriptHook) {
		h.workDir = dir
	}
}

// Args sets the arguments passed to the script.
func Args(args ...string) ScriptOption {
	return func(h *ScriptHook) {
		h.args = args
	}
}

// LogHandler configures the underlying slog.Handler.
func LogHandler(handler slog.Handler) ScriptOption {
	return func(h *ScriptHook) {
		h.log = slog.New(handler)
	}
}

// Script returns a hook for the named script within the given hooks
// directory. An empty dir means no hooks are configured.
func Script(dir, name string, opts ...ScriptOption) ScriptHook {
	h := ScriptHook{
		dir:  dir,
		name: name,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// Execute runs the script to completion and reports the typed outcome.
func (h ScriptHook) Execute(ctx context.Context) Result {
	if h.dir == "" {
		return Result{Outcome: Skipped}
	}

	path := filepath.Join(h.dir, h.name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.log.Debug(
			"lifecycle script not present",
			slogfield.String("hook", h.name),
			slogfield.Path("path", path),
		)
		return Result{Outcome: Skipped}
	}

	cmd := exec.CommandContext(ctx, path, h.args...)
	cmd.Dir = h.workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err != nil {
		h.log.Debug(
			"lifecycle script failed",
			slogfield.String("hook", h.name),
			slogfield.Path("path", path),
			slogfield.Error(err),
		)
		return Result{
			Outcome: Failed,
			Err:     HookError{Name: h.name, Path: path, Cause: err},
		}
	}

	h.log.Debug(
		"lifecycle script succeeded",
		slogfield.String("hook", h.name),
		slogfield.Path("path", path),
	)
	return Result{Outcome: Success}
}

// Run implements the [Hook] interface with enforcement enabled.
func (h ScriptHook) Run(ctx context.Context) error {
	return h.Execute(ctx).Enforce(true)
}
