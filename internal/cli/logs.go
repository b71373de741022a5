// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mlenv/mlenv/edit"
	"github.com/mlenv/mlenv/environment"

	"github.com/spf13/cobra"
)

func logsCommand(s *state) *cobra.Command {
	var (
		model int
		list  bool
		clear bool
		open  bool
	)

	cmd := &cobra.Command{
		Use:   "logs [name]",
		Short: "Show a model's logs",
		Long: `Show the named log of a model, the active one unless --model is
given. Without a name the configured default log is shown. With
--list the available logs are listed instead, with --clear they are
removed, and with --open the log opens in the configured log editor.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := s.locate()
			if err != nil {
				return err
			}

			var m *environment.Model
			if model >= 0 {
				m, err = env.Model(model)
			} else {
				m, err = env.ActiveModel()
			}
			if err != nil {
				return err
			}

			if list {
				logs, err := m.Logs()
				if err != nil {
					return err
				}
				for _, log := range logs {
					s.printer.Item(filepath.Base(log), false)
				}
				return nil
			}
			if clear {
				return m.ClearLogs()
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			path, err := m.LogPath(name)
			if err != nil {
				return err
			}

			if open {
				return edit.Open(cmd.Context(), m.Config(), path, "log.editor")
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			s.printer.Dim(fmt.Sprintf("== %s", path))
			_, err = io.Copy(cmd.OutOrStdout(), f)
			return err
		},
	}
	cmd.Flags().IntVar(&model, "model", -1, "show logs of this model instead of the active one")
	cmd.Flags().BoolVar(&list, "list", false, "list the model's logs")
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the model's logs")
	cmd.Flags().BoolVar(&open, "open", false, "open the log in the configured editor")
	cmd.MarkFlagsMutuallyExclusive("list", "clear", "open")
	return cmd
}
