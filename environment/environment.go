// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package environment

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/lifecycle"
	"github.com/mlenv/mlenv/pkg/slogfield"
	"github.com/mlenv/mlenv/value"
)

// Environment is a directory-rooted workspace. Its configuration
// resolves through the local layer and whatever global and system
// layers surround it.
type Environment struct {
	directory string
	layers    []*config.Store
	cfg       *config.Chain
	log       *slog.Logger
}

type options struct {
	logHandler slog.Handler
	storeOpts  []config.StoreOption
}

// Option configures how an environment is opened or created.
type Option func(*options)

// LogHandler sets the slog.Handler operations log through.
//
// Default is the handler of slog.Default.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// Autosave controls whether configuration writes persist immediately.
//
// Default is true.
func Autosave(enabled bool) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, config.WithAutosave(enabled))
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		logHandler: slog.Default().Handler(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open returns the environment rooted at dir. A NotFoundError is
// returned when dir holds no local configuration file.
func Open(dir string, opts ...Option) (*Environment, error) {
	o := buildOptions(opts)

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if !fileExists(filepath.Join(dir, LocalConfigName)) {
		return nil, NotFoundError{Path: dir}
	}

	layers, err := environmentLayers(dir, o.storeOpts...)
	if err != nil {
		return nil, err
	}
	cfg := config.NewChain(
		config.WithLayers(layers...),
		config.WithBuiltin(DefaultConfiguration()),
	)
	return &Environment{
		directory: dir,
		layers:    layers,
		cfg:       cfg,
		log:       slog.New(o.logHandler),
	}, nil
}

// Find searches upward from start for an environment and opens it.
func Find(start string, opts ...Option) (*Environment, error) {
	dir, ok := findUp(start)
	if !ok {
		return nil, NotFoundError{Path: start}
	}
	return Open(dir, opts...)
}

// Create initializes a new environment at dir. The directory is
// created when missing. Initial variables seed the local
// configuration layer. The environment's on_create hook runs after
// the directory layout exists; when enforce is true a failing hook
// aborts creation and rolls back a directory this call created.
func Create(ctx context.Context, dir string, variables map[string]value.Value, enforce bool, opts ...Option) (*Environment, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := findUp(dir); ok {
		return nil, ExistsError{Path: dir}
	}
	if nested, err := containsEnvironment(dir); err != nil {
		return nil, err
	} else if nested {
		return nil, ExistsError{Path: dir}
	}

	existed := dirExists(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	rollback := func() {
		if !existed {
			os.RemoveAll(dir)
		} else {
			os.Remove(filepath.Join(dir, LocalConfigName))
		}
	}

	if _, err := config.Create(filepath.Join(dir, LocalConfigName), variables); err != nil {
		rollback()
		return nil, err
	}

	env, err := Open(dir, opts...)
	if err != nil {
		rollback()
		return nil, err
	}
	if err := env.scaffold(); err != nil {
		rollback()
		return nil, err
	}

	res := env.hook(ctx, env.hooksDir(), lifecycle.OnCreate, dir, dir)
	if err := res.Enforce(enforce); err != nil {
		rollback()
		return nil, HookAbortedError{Op: "create environment", Cause: err}
	}
	env.log.Info("created environment", slogfield.Path("dir", dir))
	return env, nil
}

// scaffold creates the configured directory layout inside the
// environment directory.
func (e *Environment) scaffold() error {
	settings, err := e.Settings()
	if err != nil {
		return err
	}

	dirs := []string{settings.Env.Log.Directory}
	if prefixDir, _ := filepath.Split(settings.Model.Prefix); prefixDir != "" {
		dirs = append(dirs, prefixDir)
	}
	dirs = append(dirs, settings.Env.Directories...)
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Join(e.directory, d), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Remove discards the environment. The on_delete hook runs first;
// when enforce is true a failing hook aborts removal. The local
// configuration file is always removed, the directory itself only
// when deleteDirectory is set.
func (e *Environment) Remove(ctx context.Context, deleteDirectory, enforce bool) error {
	res := e.hook(ctx, e.hooksDir(), lifecycle.OnDelete, e.directory, e.directory)
	if err := res.Enforce(enforce); err != nil {
		return HookAbortedError{Op: "remove environment", Cause: err}
	}

	if deleteDirectory {
		e.log.Info("removing environment directory", slogfield.Path("dir", e.directory))
		return os.RemoveAll(e.directory)
	}
	e.log.Info("removing environment configuration", slogfield.Path("dir", e.directory))
	return os.Remove(filepath.Join(e.directory, LocalConfigName))
}

// Activate makes this environment the current one in the global
// configuration. The pointer is stored relative to the global
// configuration file when possible. A config.NotFoundError is
// returned when no global configuration exists.
func (e *Environment) Activate() error {
	path, err := FindGlobalConfig(e.directory)
	if err != nil {
		return err
	}
	global, err := config.Open(path)
	if err != nil {
		return err
	}

	target := e.directory
	if rel, err := filepath.Rel(filepath.Dir(path), e.directory); err == nil {
		target = rel
	}
	return global.Set(CurrentKey, value.String(target))
}

// Deactivate clears the current pointer in the global configuration
// found from start. Clearing an unset pointer is not an error.
func Deactivate(start string) error {
	path, err := FindGlobalConfig(start)
	if err != nil {
		return err
	}
	global, err := config.Open(path)
	if err != nil {
		return err
	}

	err = global.Delete(CurrentKey)
	var knse config.KeyNotSetError
	if errors.As(err, &knse) {
		return nil
	}
	return err
}

// Name reports the environment's name, the base of its directory.
func (e *Environment) Name() string {
	return filepath.Base(e.directory)
}

// Directory reports the environment's root directory.
func (e *Environment) Directory() string {
	return e.directory
}

// Config returns the environment's resolution chain. Writes land in
// the local layer.
func (e *Environment) Config() *config.Chain {
	return e.cfg
}

// Settings decodes the resolution chain into its typed view.
func (e *Environment) Settings() (Settings, error) {
	var s Settings
	err := e.cfg.Unmarshal(&s)
	return s, err
}

// LogDirectory reports the environment's log directory.
func (e *Environment) LogDirectory() (string, error) {
	settings, err := e.Settings()
	if err != nil {
		return "", err
	}
	return filepath.Join(e.directory, settings.Env.Log.Directory), nil
}

// LogPath reports the path of the named environment log file. An
// empty name selects the configured default, and a name without an
// extension gets the configured one appended.
func (e *Environment) LogPath(name string) (string, error) {
	settings, err := e.Settings()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = settings.Env.Log.Filename
	}
	if filepath.Ext(name) == "" {
		name += settings.Log.Extension
	}
	return filepath.Join(e.directory, settings.Env.Log.Directory, name), nil
}

// hooksDir reports the absolute environment hooks directory, or an
// empty string when none is configured.
func (e *Environment) hooksDir() string {
	settings, err := e.Settings()
	if err != nil || settings.Env.Hooks == "" {
		return ""
	}
	return e.resolve(settings.Env.Hooks)
}

// modelHooksDir reports the absolute model hooks directory, or an
// empty string when none is configured.
func (e *Environment) modelHooksDir() string {
	settings, err := e.Settings()
	if err != nil || settings.Model.Hooks == "" {
		return ""
	}
	return e.resolve(settings.Model.Hooks)
}

// resolve makes path absolute relative to the environment directory.
func (e *Environment) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.directory, path)
}

// hook executes the named lifecycle script and reports its outcome.
func (e *Environment) hook(ctx context.Context, dir, name, workDir string, args ...string) lifecycle.Result {
	h := lifecycle.Script(
		dir,
		name,
		lifecycle.WorkDir(workDir),
		lifecycle.Args(args...),
		lifecycle.LogHandler(e.log.Handler()),
	)
	return h.Execute(ctx)
}

// containsEnvironment reports whether any descendant of dir holds a
// local configuration file.
func containsEnvironment(dir string) (bool, error) {
	if !dirExists(dir) {
		return false, nil
	}

	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == LocalConfigName {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// formatIdentifier renders a model identifier the way directory names
// embed it.
func formatIdentifier(id int) string {
	return strconv.Itoa(id)
}
