package main

import (
	"encoding/json"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/taxonomy-server/internal/service"
)

var ancestorsDeleted bool

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors [code] [slug]",
	Short: "Print a term and its ancestors",
	Long:  `Print the term at slug and every ancestor up to the root as JSON records, the term first.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(injector do.Injector) error {
			svc := do.MustInvoke[*service.TaxonomyService](injector)

			records, err := svc.GetAncestors(cmd.Context(), nil, args[0], args[1], ancestorsDeleted)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		})
	},
}

func init() {
	rootCmd.AddCommand(ancestorsCmd)
	ancestorsCmd.Flags().BoolVar(&ancestorsDeleted, "deleted", false, "Also find deleted terms")
}
