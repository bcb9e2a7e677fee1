package main

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/taxonomy-server/internal/config"
	"github.com/listenupapp/taxonomy-server/internal/di"
)

var (
	dataPath string
	envFile  string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taxonomyctl",
	Short: "Administer the taxonomy server's database and search index",
	Long: `taxonomyctl works directly on the server's data directory.
It imports seed files, issues access tokens, prints ancestor chains and
rebuilds the search index. Stop the server before writing to its data.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Data directory (default: $DATA_PATH or ~/.taxonomy-server)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// loadConfig reads the server configuration the same way the server does,
// keeping the tool quiet unless verbose output was asked for.
func loadConfig() (*config.Config, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	args := []string{"--log-level", level, "--env-file", envFile}
	if dataPath != "" {
		args = append(args, "--data-path", dataPath)
	}
	return config.Load(args)
}

// withContainer runs fn against a tool container and shuts it down afterwards.
func withContainer(fn func(injector do.Injector) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	injector := di.NewToolContainer(cfg)
	runErr := fn(injector)
	if err := injector.Shutdown(); err != nil && runErr == nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return runErr
}
