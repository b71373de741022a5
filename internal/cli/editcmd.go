// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"errors"

	"github.com/mlenv/mlenv/config"
	"github.com/mlenv/mlenv/edit"
	"github.com/mlenv/mlenv/environment"

	"github.com/spf13/cobra"
)

func editCommand(s *state) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "edit path",
		Short: "Open a file in the configured editor",
		Long: `Open a file in an editor. The editor resolves from MLENV_ prefixed
environment variables and the configuration chain; the file's
extension is consulted first so a file type can carry its own editor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := editChain(s)
			if err != nil {
				return err
			}
			return edit.Open(cmd.Context(), chain, args[0], key)
		},
	}
	cmd.Flags().StringVar(&key, "key", "editor", "configuration key the editor resolves from")
	return cmd
}

// editChain resolves the best available chain for editor lookup, the
// environment's when one resolves and the surrounding global and
// system layers otherwise.
func editChain(s *state) (*config.Chain, error) {
	env, err := s.locate()
	if err == nil {
		return env.Config(), nil
	}
	var nfe environment.NotFoundError
	var nae environment.NotActiveError
	if !errors.As(err, &nfe) && !errors.As(err, &nae) {
		return nil, err
	}

	chain, err := environment.GlobalChain(".")
	if err == nil {
		return chain, nil
	}
	var cnfe config.NotFoundError
	if !errors.As(err, &cnfe) {
		return nil, err
	}

	chain, err = environment.SystemChain()
	if err == nil {
		return chain, nil
	}
	if !errors.As(err, &cnfe) {
		return nil, err
	}
	return config.NewChain(config.WithBuiltin(environment.DefaultConfiguration())), nil
}
