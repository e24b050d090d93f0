package main

import (
	"fmt"
	"io"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/output"
	"github.com/iwvelando/use-of-proceeds/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the use-of-proceeds table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()

			format := env.conf.Output.Format
			if cmd.Flags().Changed("output-format") {
				format = outputFormat
			}
			if err := validation.ValidateOutputFormat(format); err != nil {
				return err
			}

			grid, err := env.openGrid()
			if err != nil {
				return err
			}
			env.logger.Debug("rendering table",
				zap.String("op", "main.show"),
				zap.String("format", format),
				zap.Int("columns", len(grid.Columns())),
				zap.Int("rows", len(grid.Rows())),
			)
			return writeTable(cmd.OutOrStdout(), format, grid.Snapshot())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "o", constants.OutputFormatPretty, "output format (pretty, csv)")
	return cmd
}

func writeTable(w io.Writer, format string, snap proceeds.Snapshot) error {
	switch format {
	case constants.OutputFormatCSV:
		out, err := output.CsvString(snap)
		if err != nil {
			return fmt.Errorf("failed to render csv: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		_, err := io.WriteString(w, output.RenderPretty(snap))
		return err
	}
}
