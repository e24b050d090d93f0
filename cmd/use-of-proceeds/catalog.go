package main

import (
	"fmt"

	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [query]",
		Short: "List the spending categories offered for new rows",
		Long:  "List catalog categories grouped by overall category. A query filters on either name, case-insensitively.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			entries := env.conf.BuildCatalog().Filter(query)

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No categories match %q\n", query)
				return nil
			}

			matched := catalog.New(entries)
			for _, overall := range matched.UniqueOverallCategories() {
				fmt.Fprintln(out, overall)
				for _, category := range matched.CategoriesFor(overall) {
					fmt.Fprintln(out, "  "+category)
				}
			}
			return nil
		},
	}
}
