// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/environment"
	"github.com/mlenv/mlenv/value"

	"github.com/spf13/cobra"
)

// configScope selects which configuration file config subcommands
// operate on. Local is the default.
type configScope struct {
	s *state

	local  bool
	global bool
	system bool
	model  int
	file   string
}

// chain builds the resolution chain for the scope. Writes land in the
// scope's own file.
func (cs *configScope) chain() (*config.Chain, error) {
	switch {
	case cs.file != "":
		store, err := openOrCreate(cs.file)
		if err != nil {
			return nil, err
		}
		return config.NewChain(config.WithLayers(store)), nil

	case cs.system:
		return environment.SystemChain()

	case cs.global:
		start, err := cs.start()
		if err != nil {
			return nil, err
		}
		return environment.GlobalChain(start)

	case cs.model >= 0:
		env, err := cs.s.locate()
		if err != nil {
			return nil, err
		}
		m, err := env.Model(cs.model)
		if err != nil {
			return nil, err
		}
		return m.Config(), nil

	default:
		env, err := cs.s.locate()
		if err != nil {
			return nil, err
		}
		return env.Config(), nil
	}
}

// start picks the directory global resolution begins from, the
// environment's when one resolves and the working directory otherwise.
func (cs *configScope) start() (string, error) {
	env, err := cs.s.locate()
	if err == nil {
		return env.Directory(), nil
	}
	var nfe environment.NotFoundError
	var nae environment.NotActiveError
	if errors.As(err, &nfe) || errors.As(err, &nae) {
		return os.Getwd()
	}
	return "", err
}

func openOrCreate(path string) (*config.Store, error) {
	store, err := config.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Create(path, nil)
	}
	return store, err
}

func configCommand(s *state) *cobra.Command {
	scope := &configScope{s: s, model: -1}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write layered configuration",
		Long: `Read and write configuration variables. Reads resolve through the
selected file's whole chain down to the built-in defaults; writes go
to the selected file only. The local file is selected by default.`,
	}
	cmd.PersistentFlags().BoolVar(&scope.local, "local", false, "operate on the environment's own configuration file")
	cmd.PersistentFlags().BoolVar(&scope.global, "global", false, "operate on the global configuration file")
	cmd.PersistentFlags().BoolVar(&scope.system, "system", false, "operate on the system configuration file")
	cmd.PersistentFlags().IntVar(&scope.model, "model", -1, "operate on a model's configuration file")
	cmd.PersistentFlags().StringVar(&scope.file, "file", "", "operate on the named configuration file")
	cmd.MarkFlagsMutuallyExclusive("local", "global", "system", "model", "file")

	cmd.AddCommand(
		configGetCommand(s, scope),
		configSetCommand(s, scope),
		configDelCommand(s, scope),
		configKeysCommand(s, scope),
	)
	return cmd
}

func configGetCommand(s *state, scope *configScope) *cobra.Command {
	return &cobra.Command{
		Use:   "get key",
		Short: "Show a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := scope.chain()
			if err != nil {
				return err
			}

			v, err := chain.Get(args[0])
			if err != nil {
				return err
			}
			s.printer.KeyValue(args[0], v.String())
			return nil
		},
	}
}

func configSetCommand(s *state, scope *configScope) *cobra.Command {
	var (
		asBool    bool
		asInt     bool
		asFloat   bool
		asComplex bool
		asString  bool

		add        bool
		remove     bool
		clear      bool
		setDefault bool
	)

	cmd := &cobra.Command{
		Use:   "set key [value...]",
		Short: "Write a variable",
		Long: `Write a variable to the selected file. Values decode by shape
(booleans, none, integers, floats, empty collection markers) unless a
type flag forces the conversion. The collection flags append to,
remove from or empty a list or set instead of replacing it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := scope.chain()
			if err != nil {
				return err
			}

			key, texts := args[0], args[1:]

			if clear {
				if len(texts) > 0 {
					return fmt.Errorf("--clear takes no values")
				}
				return chain.ClearCollection(key)
			}
			if len(texts) == 0 {
				return fmt.Errorf("no value given for '%s'", key)
			}

			values := make([]value.Value, len(texts))
			for i, text := range texts {
				values[i], err = convert(text, asBool, asInt, asFloat, asComplex, asString)
				if err != nil {
					return err
				}
			}

			switch {
			case add:
				for _, v := range values {
					if err := chain.AddTo(key, v); err != nil {
						return err
					}
				}
				return nil
			case remove:
				for _, v := range values {
					if err := chain.RemoveFrom(key, v); err != nil {
						return err
					}
				}
				return nil
			case len(values) > 1:
				return fmt.Errorf("'%s' takes a single value", key)
			case setDefault:
				return chain.SetDefault(key, values[0])
			default:
				return chain.Set(key, values[0])
			}
		},
	}
	cmd.Flags().BoolVar(&asBool, "bool", false, "convert the value to a boolean")
	cmd.Flags().BoolVar(&asInt, "int", false, "convert the value to an integer")
	cmd.Flags().BoolVar(&asFloat, "float", false, "convert the value to a float")
	cmd.Flags().BoolVar(&asComplex, "complex", false, "convert the value to a complex number")
	cmd.Flags().BoolVar(&asString, "str", false, "keep the value as a string")
	cmd.MarkFlagsMutuallyExclusive("bool", "int", "float", "complex", "str")

	cmd.Flags().BoolVar(&add, "add", false, "add the values to a collection")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the values from a collection")
	cmd.Flags().BoolVar(&clear, "clear", false, "empty a collection")
	cmd.MarkFlagsMutuallyExclusive("add", "remove", "clear")

	cmd.Flags().BoolVar(&setDefault, "default", false, "only write when the key is not set yet")
	return cmd
}

func configDelCommand(s *state, scope *configScope) *cobra.Command {
	return &cobra.Command{
		Use:   "del key",
		Short: "Delete a variable from the selected file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := scope.chain()
			if err != nil {
				return err
			}
			return chain.Delete(args[0])
		},
	}
}

func configKeysCommand(s *state, scope *configScope) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every resolvable key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := scope.chain()
			if err != nil {
				return err
			}

			for _, key := range chain.Keys() {
				v, err := chain.Get(key)
				if err != nil {
					return err
				}
				s.printer.KeyValue(key, v.String())
			}
			return nil
		},
	}
}

// convert applies the requested type conversion, falling back to
// decoding by shape.
func convert(text string, asBool, asInt, asFloat, asComplex, asString bool) (value.Value, error) {
	switch {
	case asBool:
		return value.As(value.KindBool, text)
	case asInt:
		return value.As(value.KindInt, text)
	case asFloat:
		return value.As(value.KindFloat, text)
	case asComplex:
		return value.As(value.KindComplex, text)
	case asString:
		return value.As(value.KindString, text)
	default:
		return value.Decode(text), nil
	}
}
