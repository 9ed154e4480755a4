package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anime-shed/lesion-inspector-go/internal/repository"
	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses of a user",
		Long: `List the analyses stored for a user, newest first, as JSON.
With --dashboard the per-level counts and the latest analyses are printed instead.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("user", "u", "", "User whose history is listed (required)")
	cmd.Flags().String("db", loadConfig().DatabasePath, "Path of the history database")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of analyses (0 = all)")
	cmd.Flags().BoolP("dashboard", "d", false, "Print the dashboard summary")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	userID, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("failed to get user flag: %w", err)
	}
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return fmt.Errorf("failed to get db flag: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}
	dashboard, err := cmd.Flags().GetBool("dashboard")
	if err != nil {
		return fmt.Errorf("failed to get dashboard flag: %w", err)
	}

	repo, err := repository.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := commandContext(cmd)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if dashboard {
		summary, err := repo.Summarize(ctx, userID)
		if err != nil {
			return err
		}
		return enc.Encode(summary)
	}

	records, err := repo.ListAnalyses(ctx, userID, limit)
	if err != nil {
		return err
	}
	return enc.Encode(models.HistoryResponse{Analyses: records})
}
