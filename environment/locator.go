// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package environment

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mlenv/mlenv/pkg/slogfield"
)

// MatchKind reports which resolution step located an environment.
type MatchKind string

const (
	// MatchPath means an explicit path argument resolved.
	MatchPath MatchKind = "path"
	// MatchEnviron means the MLENV_ENVIRONMENT variable resolved.
	MatchEnviron MatchKind = "env"
	// MatchWorkDir means an upward search from the working directory resolved.
	MatchWorkDir MatchKind = "cwd"
	// MatchCurrent means the global current pointer resolved.
	MatchCurrent MatchKind = "current"
)

// Location is the result of a successful resolution.
type Location struct {
	// Directory is the environment directory.
	Directory string

	// Match reports which step produced the directory.
	Match MatchKind
}

// Locator resolves the environment a command should operate on.
//
// Resolution tries, in order: the explicit Path, the
// MLENV_ENVIRONMENT variable, an upward search from WorkDir, and
// finally the current pointer in the global configuration. The first
// step that applies decides the outcome; later steps are not tried as
// fallbacks for a step that applied and failed.
type Locator struct {
	// Path is an explicit environment directory, tried first when
	// non-empty. The directory and its ancestors are searched.
	Path string

	// WorkDir is the directory upward searches start from. Defaults
	// to the process working directory.
	WorkDir string

	// Log receives resolution traces. Defaults to slog.Default's handler.
	Log slog.Handler
}

// Resolve runs the resolution steps and reports the environment
// directory together with the step that matched.
func (l Locator) Resolve() (Location, error) {
	log := slog.New(l.handler())

	if l.Path != "" {
		dir, ok := findUp(l.Path)
		if !ok {
			return Location{}, NotFoundError{Path: l.Path}
		}
		log.Debug("resolved environment from path argument", slogfield.Path("dir", dir))
		return Location{Directory: dir, Match: MatchPath}, nil
	}

	if path := os.Getenv(EnvEnvironment); path != "" {
		if !fileExists(filepath.Join(path, LocalConfigName)) {
			return Location{}, NotFoundError{Path: path}
		}
		log.Debug("resolved environment from variable", slogfield.Path("dir", path))
		return Location{Directory: path, Match: MatchEnviron}, nil
	}

	workDir, err := l.workDir()
	if err != nil {
		return Location{}, err
	}
	if dir, ok := findUp(workDir); ok {
		log.Debug("resolved environment from working directory", slogfield.Path("dir", dir))
		return Location{Directory: dir, Match: MatchWorkDir}, nil
	}

	dir, err := current(workDir)
	if err != nil {
		return Location{}, err
	}
	log.Debug("resolved environment from current pointer", slogfield.Path("dir", dir))
	return Location{Directory: dir, Match: MatchCurrent}, nil
}

func (l Locator) workDir() (string, error) {
	if l.WorkDir != "" {
		return l.WorkDir, nil
	}
	return os.Getwd()
}

func (l Locator) handler() slog.Handler {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default().Handler()
}

// current reads the global current pointer and validates its target.
func current(start string) (string, error) {
	path, err := FindGlobalConfig(start)
	if err != nil {
		return "", NotFoundError{}
	}

	chain, err := GlobalChain(start)
	if err != nil {
		return "", err
	}
	v, err := chain.Get(CurrentKey)
	if err != nil {
		return "", NotActiveError{}
	}

	dir := v.AsString()
	if dir == "" {
		return "", NotActiveError{}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(path), dir)
	}
	if !fileExists(filepath.Join(dir, LocalConfigName)) {
		return "", NotFoundError{Path: dir}
	}
	return dir, nil
}

// findUp walks from start toward the file system root looking for a
// directory holding a local configuration file. A start naming the
// configuration file itself also matches.
func findUp(start string) (string, bool) {
	dir := start
	if filepath.Base(start) == LocalConfigName && fileExists(start) {
		return filepath.Dir(start), true
	}

	for dir != "" {
		if fileExists(filepath.Join(dir, LocalConfigName)) {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
	return "", false
}
