// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mlenv/mlenv/environment"
	"github.com/mlenv/mlenv/value"

	"github.com/spf13/cobra"
)

func initCommand(s *state) *cobra.Command {
	var (
		noEnforce bool
		activate  bool
		sets      []string
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a new environment",
		Long: `Initialize a new environment in the given directory, or the
working directory when none is given. The directory is created when
missing and must not already belong to an environment.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			variables, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			env, err := environment.Create(
				cmd.Context(),
				dir,
				variables,
				!noEnforce,
				environment.LogHandler(s.log.Handler()),
			)
			if err != nil {
				return err
			}

			if activate {
				if err := env.Activate(); err != nil {
					return err
				}
			}
			s.printer.Printf("initialized environment %s", env.Directory())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noEnforce, "no-enforce", false, "ignore a failing on_create hook")
	cmd.Flags().BoolVar(&activate, "activate", false, "make the new environment current")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "seed the local layer with key=value")
	return cmd
}

func destroyCommand(s *state) *cobra.Command {
	var (
		noEnforce     bool
		keepDirectory bool
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Discard an environment",
		Long: `Discard the resolved environment. Its on_delete hook runs first,
then the local configuration file is removed. The directory tree is
removed too unless --keep-directory is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			err = env.Remove(cmd.Context(), !keepDirectory, !noEnforce)
			if err != nil {
				return err
			}
			s.printer.Printf("destroyed environment %s", env.Directory())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noEnforce, "no-enforce", false, "ignore a failing on_delete hook")
	cmd.Flags().BoolVar(&keepDirectory, "keep-directory", false, "keep the directory tree")
	return cmd
}

func activateCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "activate [dir]",
		Short: "Make an environment the current one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := s.environ
			if len(args) == 1 {
				path = args[0]
			}

			loc, err := environment.Locator{Path: path, Log: s.log.Handler()}.Resolve()
			if err != nil {
				return err
			}
			env, err := environment.Open(loc.Directory)
			if err != nil {
				return err
			}

			if err := env.Activate(); err != nil {
				return err
			}
			s.printer.Printf("activated environment %s", env.Directory())
			return nil
		},
	}
}

func currentCommand(s *state) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show or clear the current environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				return environment.Deactivate(wd)
			}

			loc, err := environment.Locator{
				Path: s.environ,
				Log:  s.log.Handler(),
			}.Resolve()
			if err != nil {
				return err
			}
			s.printer.Printf("%s", loc.Directory)
			s.printer.Dim(fmt.Sprintf("resolved via %s", loc.Match))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the current environment pointer")
	return cmd
}

// parseAssignments turns key=value arguments into decoded variables.
func parseAssignments(assignments []string) (map[string]value.Value, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	variables := make(map[string]value.Value, len(assignments))
	for _, assignment := range assignments {
		key, text, ok := strings.Cut(assignment, "=")
		if !ok {
			return nil, fmt.Errorf("'%s' is not of the form key=value", assignment)
		}
		variables[key] = value.Decode(text)
	}
	return variables, nil
}
