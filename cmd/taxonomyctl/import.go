package main

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/taxonomy-server/internal/di/providers"
	"github.com/listenupapp/taxonomy-server/internal/service"
)

var importReplace bool

var importCmd = &cobra.Command{
	Use:   "import [file.yaml]...",
	Short: "Import taxonomies from YAML seed files",
	Long: `Create the taxonomies and term trees described in one or more YAML seed files.
Taxonomies that already exist are a conflict unless --replace is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seeds := make([]*seedFile, 0, len(args))
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			seed, err := loadSeed(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			seeds = append(seeds, seed)
		}

		return withContainer(func(injector do.Injector) error {
			svc := do.MustInvoke[*service.TaxonomyService](injector)
			index := do.MustInvoke[*providers.SearchIndexHandle](injector)

			var total importStats
			for i, seed := range seeds {
				stats, err := applySeed(cmd.Context(), svc, seed, importReplace)
				total.Taxonomies += stats.Taxonomies
				total.Terms += stats.Terms
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
			}

			// A fresh index only holds what was just imported.
			if index.Created() {
				if _, err := svc.Reindex(cmd.Context()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d taxonomies with %d terms\n", total.Taxonomies, total.Terms)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Delete existing taxonomies with the same code first")
}
