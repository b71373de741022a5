// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package environment manages directory-rooted workspaces for machine
// learning experiments. An environment is a directory holding a local
// configuration layer and a sequence of numbered model workspaces;
// its configuration resolves through local, global, system and
// built-in default layers.
package environment

import "github.com/mlenv/mlenv/value"

// Configuration file conventions.
const (
	// LocalConfigName is the per-environment configuration file,
	// stored in the environment's directory.
	LocalConfigName = ".mlenv.environ"
	// GlobalConfigName is the configuration file shared by a group of
	// environments, searched for up the file system tree and in the
	// user's home directory.
	GlobalConfigName = ".mlenv.config"
	// SystemConfigPath is the system wide configuration file.
	SystemConfigPath = "/etc/mlenv.config"
	// ModelConfigName is the per-model configuration file, stored in
	// the model's directory.
	ModelConfigName = ".mlenv.model"
)

// Operating system environment variable overrides.
const (
	// EnvEnvironment overrides environment resolution with an
	// explicit environment directory.
	EnvEnvironment = "MLENV_ENVIRONMENT"
	// EnvGlobalConfig overrides the global configuration file location.
	EnvGlobalConfig = "MLENV_GLOBAL_CONFIG"
	// EnvSystemConfig overrides the system configuration file location.
	EnvSystemConfig = "MLENV_SYSTEM_CONFIG"
)

// Active pointer keys. Both are ordinary configuration keys read and
// written through the same store contract as everything else.
const (
	// CurrentKey is the global store key naming the current
	// environment, stored relative to the global configuration file.
	CurrentKey = "current"
	// ActiveModelKey is the local store key holding the active model
	// identifier.
	ActiveModelKey = "active_model"
)

// DefaultConfiguration returns the built-in defaults terminating
// every resolution chain.
func DefaultConfiguration() map[string]value.Value {
	return map[string]value.Value{
		"model.prefix":        value.String(""),
		"model.directories":   value.List(),
		"model.hooks":         value.String(""),
		"model.summary":       value.String("summary"),
		"model.log.default":   value.String("train.log"),
		"model.log.directory": value.String("logs"),
		"env.directories":      value.List(),
		"env.hooks":            value.String(""),
		"env.log.filename":     value.String("mlenv.log"),
		"env.log.directory":    value.String("logs"),
		"log.default":          value.String("mlenv.log"),
		"log.extension":        value.String(".log"),
		"log.editor":           value.String("nano"),
		"config.editor":        value.String("nano"),
		"editor":               value.String("nano"),
		"tensorboard.host":     value.String("127.0.0.1"),
		"tensorboard.port":     value.Int(6006),
	}
}

// Settings is the typed view of a resolution chain, decoded with
// [config.Chain.Unmarshal].
type Settings struct {
	Editor string `config:"editor"`

	Model struct {
		// Prefix is prepended to a model's identifier to form its
		// workspace directory name. It may contain path separators.
		Prefix      string   `config:"prefix"`
		Directories []string `config:"directories"`
		Hooks       string   `config:"hooks"`
		Summary     string   `config:"summary"`
		Log           struct {
			Default   string `config:"default"`
			Directory string `config:"directory"`
		} `config:"log"`
	} `config:"model"`

	Env struct {
		Directories []string `config:"directories"`
		Hooks       string   `config:"hooks"`
		Log         struct {
			Filename  string `config:"filename"`
			Directory string `config:"directory"`
		} `config:"log"`
	} `config:"env"`

	Log struct {
		Default   string `config:"default"`
		Extension string `config:"extension"`
		Editor    string `config:"editor"`
	} `config:"log"`

	Tensorboard struct {
		Host string `config:"host"`
		Port int    `config:"port"`
	} `config:"tensorboard"`
}
