package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/taxonomy-server/internal/service"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(func(injector do.Injector) error {
			svc := do.MustInvoke[*service.TaxonomyService](injector)

			count, err := svc.Reindex(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d terms\n", count)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
