package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anime-shed/lesion-inspector-go/internal/config"
	"github.com/anime-shed/lesion-inspector-go/internal/logger"
	"github.com/anime-shed/lesion-inspector-go/internal/version"
)

// NewRootCmd creates the root command for lesionctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesionctl",
		Short: "Analyse skin lesion photographs from the command line",
		Long: `lesionctl runs the lesion analysis pipeline on local image files,
inspects the stored analysis history and mints development tokens for the API.

Settings default to the same environment variables and CONFIG_FILE as the API
server; flags override them.`,
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			if verbose {
				return logger.SetLevel("debug")
			}
			return logger.SetLevel("warn")
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the shared configuration, falling back to defaults when
// the environment is invalid for a server but fine for the CLI.
func loadConfig() *config.Config {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Default()
	}
	return cfg
}
