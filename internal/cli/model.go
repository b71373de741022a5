// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mlenv/mlenv/environment"

	"github.com/spf13/cobra"
)

func modelCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage an environment's models",
	}
	cmd.AddCommand(
		modelNewCommand(s),
		modelListCommand(s),
		modelActivateCommand(s),
		modelDiscardCommand(s),
	)
	return cmd
}

func modelNewCommand(s *state) *cobra.Command {
	var (
		identifier int
		noEnforce  bool
		activate   bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a model workspace",
		Long: `Create a model workspace with the next free identifier, or the
one given with --id. Identifiers of discarded models are never handed
out again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			opts := []environment.CreateModelOption{
				environment.EnforceHooks(!noEnforce),
			}
			if identifier >= 0 {
				opts = append(opts, environment.WithIdentifier(identifier))
			}

			m, err := env.CreateModel(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			if activate {
				if err := env.ActivateModel(m.Identifier()); err != nil {
					return err
				}
			}
			s.printer.Printf("created model %d at %s", m.Identifier(), m.Directory())
			return nil
		},
	}
	cmd.Flags().IntVar(&identifier, "id", -1, "identifier for the new model")
	cmd.Flags().BoolVar(&noEnforce, "no-enforce", false, "ignore a failing on_create hook")
	cmd.Flags().BoolVar(&activate, "activate", false, "make the new model active")
	return cmd
}

func modelListCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List an environment's models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			ids, err := env.Models()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				s.printer.Dim("no models")
				return nil
			}

			active := -1
			if m, err := env.ActiveModel(); err == nil {
				active = m.Identifier()
			}

			for _, id := range ids {
				m, err := env.Model(id)
				if err != nil {
					return err
				}
				s.printer.Item(fmt.Sprintf("%d\t%s", id, m.Directory()), id == active)
			}
			return nil
		},
	}
}

func modelActivateCommand(s *state) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "activate [identifier]",
		Short: "Set or clear the active model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			if clear {
				if len(args) > 0 {
					return fmt.Errorf("--clear takes no identifier")
				}
				return env.ClearActiveModel()
			}
			if len(args) == 0 {
				m, err := env.ActiveModel()
				if err != nil {
					return err
				}
				s.printer.Printf("%d", m.Identifier())
				return nil
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("'%s' is not a model identifier", args[0])
			}
			return env.ActivateModel(id)
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the active model pointer")
	return cmd
}

func modelDiscardCommand(s *state) *cobra.Command {
	var (
		all           bool
		others        bool
		keepDirectory bool
		noEnforce     bool
	)

	cmd := &cobra.Command{
		Use:   "discard [identifier...]",
		Short: "Discard model workspaces",
		Long: `Discard the identified models. With --all every model goes, with
--others every model except the active one. Batches run to completion
and report every failure. The active model pointer is never touched,
even when its target is discarded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			policy := environment.DefaultDiscardPolicy()
			policy.DeleteDirectory = !keepDirectory
			policy.EnforceHooks = !noEnforce

			switch {
			case all:
				if len(args) > 0 {
					return errors.New("--all takes no identifiers")
				}
				return env.DiscardAllModels(cmd.Context(), policy)

			case others:
				if len(args) > 0 {
					return errors.New("--others takes no identifiers")
				}
				active, err := env.ActiveModel()
				if err != nil {
					return err
				}
				return env.DiscardOtherModels(cmd.Context(), active.Identifier(), policy)

			default:
				if len(args) == 0 {
					return errors.New("no model identifiers given")
				}
				ids := make([]int, len(args))
				for i, arg := range args {
					ids[i], err = strconv.Atoi(arg)
					if err != nil {
						return fmt.Errorf("'%s' is not a model identifier", arg)
					}
				}
				return env.DiscardModels(cmd.Context(), ids, policy)
			}
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "discard every model")
	cmd.Flags().BoolVar(&others, "others", false, "discard every model except the active one")
	cmd.MarkFlagsMutuallyExclusive("all", "others")
	cmd.Flags().BoolVar(&keepDirectory, "keep-directory", false, "keep the workspace directories")
	cmd.Flags().BoolVar(&noEnforce, "no-enforce", false, "ignore failing on_delete hooks")
	return cmd
}
