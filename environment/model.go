// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package environment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/lifecycle"
	"github.com/mlenv/mlenv/pkg/slogfield"
	"github.com/mlenv/mlenv/value"
)

// Model is a numbered workspace inside an environment. Its
// configuration resolves through the model layer and then the
// environment's own chain.
type Model struct {
	env       *Environment
	id        int
	directory string
	cfg       *config.Chain
}

// DiscardPolicy controls how environments and models are removed.
type DiscardPolicy struct {
	// DeleteDirectory removes the workspace directory, not just its
	// configuration file.
	DeleteDirectory bool

	// EnforceHooks aborts removal when the on_delete hook fails.
	EnforceHooks bool

	// StopOnError aborts a batch at the first failing member instead
	// of continuing and collecting errors.
	StopOnError bool
}

// DefaultDiscardPolicy removes directories and enforces hooks, and
// lets batches run to completion.
func DefaultDiscardPolicy() DiscardPolicy {
	return DiscardPolicy{
		DeleteDirectory: true,
		EnforceHooks:    true,
	}
}

type createModelOptions struct {
	identifier    int
	hasIdentifier bool
	enforce       bool
}

// CreateModelOption configures model creation.
type CreateModelOption func(*createModelOptions)

// WithIdentifier requests a specific model identifier instead of the
// next free one.
func WithIdentifier(id int) CreateModelOption {
	return func(o *createModelOptions) {
		o.identifier = id
		o.hasIdentifier = true
	}
}

// EnforceHooks controls whether a failing on_create hook aborts model
// creation.
//
// Default is true.
func EnforceHooks(enforce bool) CreateModelOption {
	return func(o *createModelOptions) {
		o.enforce = enforce
	}
}

// splitPrefix splits the configured model prefix into the directory
// model workspaces live under and the leading part of their names.
func (e *Environment) splitPrefix(settings Settings) (root, namePrefix string) {
	dir, namePrefix := filepath.Split(settings.Model.Prefix)
	return filepath.Join(e.directory, dir), namePrefix
}

// modelDirectory reports the workspace directory of the identified
// model, the environment directory joined with the configured prefix
// and the identifier.
func (e *Environment) modelDirectory(settings Settings, id int) string {
	return filepath.Join(e.directory, settings.Model.Prefix+formatIdentifier(id))
}

// Models reports the identifiers of every model in the environment,
// sorted ascending. A directory only counts when it matches the
// configured naming scheme and holds a model configuration file.
func (e *Environment) Models() ([]int, error) {
	settings, err := e.Settings()
	if err != nil {
		return nil, err
	}

	root, namePrefix := e.splitPrefix(settings)
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		suffix, ok := strings.CutPrefix(entry.Name(), namePrefix)
		if !ok {
			continue
		}
		id, err := strconv.Atoi(suffix)
		if err != nil || id < 0 || formatIdentifier(id) != suffix {
			continue
		}
		if fileExists(filepath.Join(root, entry.Name(), ModelConfigName)) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// NextIdentifier reports the identifier the next model will receive,
// one past the highest identifier present. Gaps left by discarded
// models are never filled.
func (e *Environment) NextIdentifier() (int, error) {
	ids, err := e.Models()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[len(ids)-1] + 1, nil
}

// CreateModel initializes a new model workspace. Without
// WithIdentifier the next free identifier is allocated. The model's
// on_create hook runs after the directory layout exists; when
// enforced, a failing hook aborts creation and rolls the workspace
// back.
func (e *Environment) CreateModel(ctx context.Context, opts ...CreateModelOption) (*Model, error) {
	o := &createModelOptions{enforce: true}
	for _, opt := range opts {
		opt(o)
	}

	settings, err := e.Settings()
	if err != nil {
		return nil, err
	}

	id := o.identifier
	if !o.hasIdentifier {
		id, err = e.NextIdentifier()
		if err != nil {
			return nil, err
		}
	}

	dir := e.modelDirectory(settings, id)
	if fileExists(filepath.Join(dir, ModelConfigName)) {
		return nil, ModelExistsError{Directory: e.directory, Identifier: id}
	}

	existed := dirExists(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	rollback := func() {
		if !existed {
			os.RemoveAll(dir)
		} else {
			os.Remove(filepath.Join(dir, ModelConfigName))
		}
	}

	if _, err := config.Create(filepath.Join(dir, ModelConfigName), nil); err != nil {
		rollback()
		return nil, err
	}

	layout := append([]string{settings.Model.Log.Directory}, settings.Model.Directories...)
	for _, d := range layout {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			rollback()
			return nil, err
		}
	}

	res := e.hook(ctx, e.modelHooksDir(), lifecycle.OnCreate, dir,
		e.directory, dir, formatIdentifier(id))
	if err := res.Enforce(o.enforce); err != nil {
		rollback()
		return nil, HookAbortedError{Op: "create model", Cause: err}
	}

	e.log.Info("created model",
		slogfield.Int("model", id),
		slogfield.Path("dir", dir),
	)
	return e.Model(id)
}

// Model returns the identified model. A ModelNotFoundError is
// returned when its workspace or configuration file is gone.
func (e *Environment) Model(id int) (*Model, error) {
	settings, err := e.Settings()
	if err != nil {
		return nil, err
	}

	dir := e.modelDirectory(settings, id)
	path := filepath.Join(dir, ModelConfigName)
	if !fileExists(path) {
		return nil, ModelNotFoundError{Directory: e.directory, Identifier: id}
	}

	store, err := config.Open(path)
	if err != nil {
		return nil, err
	}
	cfg := config.NewChain(
		config.WithLayers(append([]*config.Store{store}, e.layers...)...),
		config.WithBuiltin(DefaultConfiguration()),
	)
	return &Model{
		env:       e,
		id:        id,
		directory: dir,
		cfg:       cfg,
	}, nil
}

// ActivateModel makes the identified model the environment's active
// one. The identifier is validated before the pointer changes, so a
// failed activation leaves the previous pointer intact.
func (e *Environment) ActivateModel(id int) error {
	if _, err := e.Model(id); err != nil {
		return err
	}
	return e.layers[0].Set(ActiveModelKey, value.Int(int64(id)))
}

// ActiveModel returns the model the active pointer names. A
// ModelNotFoundError is returned when no pointer is set or when its
// target no longer exists. The pointer is never cleared implicitly.
func (e *Environment) ActiveModel() (*Model, error) {
	v, err := e.layers[0].Get(ActiveModelKey)
	if err != nil || v.Kind() != value.KindInt {
		return nil, ModelNotFoundError{Directory: e.directory, Identifier: -1}
	}
	return e.Model(int(v.AsInt()))
}

// ClearActiveModel unsets the active pointer. Clearing an unset
// pointer is not an error.
func (e *Environment) ClearActiveModel() error {
	err := e.layers[0].Delete(ActiveModelKey)
	var knse config.KeyNotSetError
	if errors.As(err, &knse) {
		return nil
	}
	return err
}

// DiscardModel removes the identified model. The on_delete hook runs
// first and may abort removal when enforced. The model's
// configuration file is always removed, its directory only when the
// policy says so. The active pointer is left untouched even when it
// names the discarded model.
func (e *Environment) DiscardModel(ctx context.Context, id int, policy DiscardPolicy) error {
	m, err := e.Model(id)
	if err != nil {
		return err
	}

	res := e.hook(ctx, e.modelHooksDir(), lifecycle.OnDelete, m.directory,
		e.directory, m.directory, formatIdentifier(id))
	if err := res.Enforce(policy.EnforceHooks); err != nil {
		return HookAbortedError{Op: "discard model", Cause: err}
	}

	e.log.Info("discarding model",
		slogfield.Int("model", id),
		slogfield.Path("dir", m.directory),
	)
	if policy.DeleteDirectory {
		return os.RemoveAll(m.directory)
	}
	return os.Remove(filepath.Join(m.directory, ModelConfigName))
}

// DiscardModels removes the identified models. Members that are
// already gone are skipped. Unless the policy stops on error, every
// member is attempted and the failures are joined.
func (e *Environment) DiscardModels(ctx context.Context, ids []int, policy DiscardPolicy) error {
	discard := func(id int) lifecycle.Hook {
		return lifecycle.HookFunc(func(ctx context.Context) error {
			err := e.DiscardModel(ctx, id, policy)
			var mnfe ModelNotFoundError
			if errors.As(err, &mnfe) {
				return nil
			}
			return err
		})
	}

	if policy.StopOnError {
		for _, id := range ids {
			if err := discard(id).Run(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	hooks := make([]lifecycle.Hook, 0, len(ids))
	for _, id := range ids {
		hooks = append(hooks, discard(id))
	}
	return lifecycle.MultiHook(hooks...).Run(ctx)
}

// DiscardAllModels removes every model in the environment.
func (e *Environment) DiscardAllModels(ctx context.Context, policy DiscardPolicy) error {
	ids, err := e.Models()
	if err != nil {
		return err
	}
	return e.DiscardModels(ctx, ids, policy)
}

// DiscardOtherModels removes every model except the identified one.
func (e *Environment) DiscardOtherModels(ctx context.Context, keep int, policy DiscardPolicy) error {
	ids, err := e.Models()
	if err != nil {
		return err
	}
	others := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != keep {
			others = append(others, id)
		}
	}
	return e.DiscardModels(ctx, others, policy)
}

// Identifier reports the model's identifier.
func (m *Model) Identifier() int {
	return m.id
}

// Directory reports the model's workspace directory.
func (m *Model) Directory() string {
	return m.directory
}

// Environment returns the environment the model belongs to.
func (m *Model) Environment() *Environment {
	return m.env
}

// Config returns the model's resolution chain. Writes land in the
// model layer.
func (m *Model) Config() *config.Chain {
	return m.cfg
}

// Settings decodes the model's resolution chain into its typed view.
func (m *Model) Settings() (Settings, error) {
	var s Settings
	err := m.cfg.Unmarshal(&s)
	return s, err
}

// Path makes rel absolute inside the model's workspace. An absolute
// rel is returned unchanged.
func (m *Model) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.directory, rel)
}

// SummaryPath reports the path of the model's summary file.
func (m *Model) SummaryPath() (string, error) {
	settings, err := m.Settings()
	if err != nil {
		return "", err
	}
	return m.Path(settings.Model.Summary), nil
}

// LogDirectory reports the model's log directory.
func (m *Model) LogDirectory() (string, error) {
	settings, err := m.Settings()
	if err != nil {
		return "", err
	}
	return m.Path(settings.Model.Log.Directory), nil
}

// LogPath reports the path of the named log file inside the model's
// log directory. An empty name selects the configured default, and a
// name without an extension gets the configured one appended.
func (m *Model) LogPath(name string) (string, error) {
	settings, err := m.Settings()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = settings.Model.Log.Default
	}
	if filepath.Ext(name) == "" {
		name += settings.Log.Extension
	}
	return filepath.Join(m.directory, settings.Model.Log.Directory, name), nil
}

// Logs reports the log files in the model's log directory, sorted by
// name. Only files carrying the configured extension count.
func (m *Model) Logs() ([]string, error) {
	settings, err := m.Settings()
	if err != nil {
		return nil, err
	}

	dir := m.Path(settings.Model.Log.Directory)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var logs []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != settings.Log.Extension {
			continue
		}
		logs = append(logs, filepath.Join(dir, entry.Name()))
	}
	return logs, nil
}

// ClearLogs removes every log file in the model's log directory.
func (m *Model) ClearLogs() error {
	logs, err := m.Logs()
	if err != nil {
		return err
	}
	for _, log := range logs {
		if err := os.Remove(log); err != nil {
			return err
		}
	}
	return nil
}
