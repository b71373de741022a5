// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"errors"
	"os/exec"

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/edit"
	"github.com/mlenv/mlenv/environment"
	"github.com/mlenv/mlenv/tensorboard"
	"github.com/mlenv/mlenv/value"
)

// Process exit codes, one per error class.
const (
	ExitUnknown        = 1
	ExitModelNotFound  = 2
	ExitEnvNotFound    = 3
	ExitEnvExists      = 4
	ExitConfigNotFound = 5
	ExitConfigExists   = 6
	ExitTensorboard    = 7
	ExitKeyError       = 8
	ExitValueError     = 9
	ExitEnvNotActive   = 10
	ExitHookAborted    = 11
)

// Code maps an error to the process exit code reported for it. A
// failed subprocess propagates its own exit code.
func Code(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}

	switch {
	case errors.As(err, &environment.ModelNotFoundError{}),
		errors.As(err, &environment.ModelExistsError{}):
		return ExitModelNotFound
	case errors.As(err, &environment.NotFoundError{}):
		return ExitEnvNotFound
	case errors.As(err, &environment.ExistsError{}):
		return ExitEnvExists
	case errors.As(err, &environment.NotActiveError{}):
		return ExitEnvNotActive
	case errors.As(err, &environment.HookAbortedError{}):
		return ExitHookAborted
	case errors.As(err, &config.NotFoundError{}),
		errors.As(err, &config.InvalidError{}):
		return ExitConfigNotFound
	case errors.As(err, &config.ExistsError{}):
		return ExitConfigExists
	case errors.As(err, &tensorboard.Error{}):
		return ExitTensorboard
	case errors.As(err, &config.KeyNotSetError{}),
		errors.As(err, &edit.NotSetError{}):
		return ExitKeyError
	case errors.As(err, &value.ConversionError{}),
		errors.As(err, &value.NotCollectionError{}),
		errors.As(err, &value.MissingElementError{}):
		return ExitValueError
	default:
		return ExitUnknown
	}
}
