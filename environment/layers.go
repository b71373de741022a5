// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package environment

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mlenv/mlenv/config"
)

// FindGlobalConfig locates the global configuration file. The
// MLENV_GLOBAL_CONFIG variable wins when set. Otherwise the file
// system is searched upward from start, then the user's home
// directory is tried. A config.NotFoundError is returned when no file
// exists anywhere along that path.
func FindGlobalConfig(start string) (string, error) {
	if path := os.Getenv(EnvGlobalConfig); path != "" {
		if fileExists(path) {
			return path, nil
		}
		return "", config.NotFoundError{Level: "global"}
	}

	dir := start
	for dir != "" {
		path := filepath.Join(dir, GlobalConfigName)
		if fileExists(path) {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, GlobalConfigName)
		if fileExists(path) {
			return path, nil
		}
	}
	return "", config.NotFoundError{Level: "global"}
}

// FindSystemConfig locates the system configuration file, honoring
// the MLENV_SYSTEM_CONFIG override. A config.NotFoundError is
// returned when the file does not exist.
func FindSystemConfig() (string, error) {
	path := os.Getenv(EnvSystemConfig)
	if path == "" {
		path = SystemConfigPath
	}
	if fileExists(path) {
		return path, nil
	}
	return "", config.NotFoundError{Level: "system"}
}

// CreateGlobal writes a new global configuration file at path.
func CreateGlobal(path string) (*config.Store, error) {
	return config.Create(path, nil)
}

// SystemChain resolves configuration through the system layer and the
// built-in defaults only. A config.NotFoundError is returned when no
// system file exists.
func SystemChain(opts ...config.StoreOption) (*config.Chain, error) {
	path, err := FindSystemConfig()
	if err != nil {
		return nil, err
	}
	system, err := config.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return config.NewChain(
		config.WithLayers(system),
		config.WithBuiltin(DefaultConfiguration()),
	), nil
}

// GlobalChain resolves configuration through the global layer found
// from start, the system layer and the built-in defaults. A
// config.NotFoundError is returned when no global file exists.
func GlobalChain(start string, opts ...config.StoreOption) (*config.Chain, error) {
	path, err := FindGlobalConfig(start)
	if err != nil {
		return nil, err
	}
	global, err := config.Open(path, opts...)
	if err != nil {
		return nil, err
	}

	layers, err := systemLayers(opts)
	if err != nil {
		return nil, err
	}
	return config.NewChain(
		config.WithLayers(append([]*config.Store{global}, layers...)...),
		config.WithBuiltin(DefaultConfiguration()),
	), nil
}

// environmentLayers opens the local store of the environment at dir
// together with whatever global and system layers exist around it.
// Only the local layer is mandatory.
func environmentLayers(dir string, opts ...config.StoreOption) ([]*config.Store, error) {
	local, err := config.Open(filepath.Join(dir, LocalConfigName), opts...)
	if err != nil {
		return nil, err
	}
	layers := []*config.Store{local}

	if path, err := FindGlobalConfig(dir); err == nil {
		global, err := config.Open(path, opts...)
		if err != nil {
			return nil, err
		}
		layers = append(layers, global)
	} else if !isNotFound(err) {
		return nil, err
	}

	system, err := systemLayers(opts)
	if err != nil {
		return nil, err
	}
	return append(layers, system...), nil
}

func systemLayers(opts []config.StoreOption) ([]*config.Store, error) {
	path, err := FindSystemConfig()
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	system, err := config.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return []*config.Store{system}, nil
}

func isNotFound(err error) bool {
	var nfe config.NotFoundError
	return errors.As(err, &nfe)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
