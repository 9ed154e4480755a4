package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anime-shed/lesion-inspector-go/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of lesionctl.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lesionctl version %s\n", version.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date())
		},
	}
}
