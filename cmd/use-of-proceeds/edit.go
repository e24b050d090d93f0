package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEditCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the table in an interactive terminal editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()
			// stderr logging would draw over the alt screen
			if env.conf.Logging.OutputFile == "" {
				env.logger = zap.NewNop()
			}

			grid, err := env.openGrid()
			if err != nil {
				return err
			}

			app := tui.NewApp(cmd.Context(), grid, tui.Options{
				Logger: env.logger,
				LoadLoans: func(context.Context) ([]proceeds.ProjectLoan, error) {
					return env.loadLoans()
				},
			})
			if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
				return fmt.Errorf("editor error: %w", err)
			}
			return nil
		},
	}
}
