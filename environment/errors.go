// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package environment

import "fmt"

// NotFoundError is returned when a directory does not contain, and is
// not contained in, an environment.
type NotFoundError struct {
	// Path is the location that was searched, if any.
	Path string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	if e.Path == "" {
		return "no environment found"
	}
	return fmt.Sprintf("'%s' is not part of an environment", e.Path)
}

// ExistsError is returned when creating an environment at a location
// already belonging to one.
type ExistsError struct {
	// Path is the offending location.
	Path string
}

// Error implements the error interface.
func (e ExistsError) Error() string {
	return fmt.Sprintf("'%s' already belongs to an environment", e.Path)
}

// NotActiveError is returned when resolution falls through to the
// current environment pointer and none is set.
type NotActiveError struct{}

// Error implements the error interface.
func (e NotActiveError) Error() string {
	return "no environment is active"
}

// ModelNotFoundError is returned when an environment does not contain
// the requested model. A negative Identifier means the active model
// was requested and no pointer is set.
type ModelNotFoundError struct {
	// Directory is the environment directory.
	Directory string

	// Identifier is the missing model identifier.
	Identifier int
}

// Error implements the error interface.
func (e ModelNotFoundError) Error() string {
	if e.Identifier < 0 {
		return fmt.Sprintf("environment '%s' has no active model", e.Directory)
	}
	return fmt.Sprintf("environment '%s' has no model %d", e.Directory, e.Identifier)
}

// ModelExistsError is returned when creating a model with an
// identifier that is already taken.
type ModelExistsError struct {
	// Directory is the environment directory.
	Directory string

	// Identifier is the conflicting model identifier.
	Identifier int
}

// Error implements the error interface.
func (e ModelExistsError) Error() string {
	return fmt.Sprintf("environment '%s' already has model %d", e.Directory, e.Identifier)
}

// HookAbortedError wraps a hook failure that aborted the operation it
// guarded.
type HookAbortedError struct {
	// Op names the aborted operation.
	Op string

	// Cause is the underlying hook failure.
	Cause error
}

// Error implements the error interface.
func (e HookAbortedError) Error() string {
	return fmt.Sprintf("%s aborted by hook: %s", e.Op, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e HookAbortedError) Unwrap() error {
	return e.Cause
}
