package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anime-shed/lesion-inspector-go/internal/auth"
)

// NewTokenCmd creates the token command.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development API token",
		Long: `Print an HS256 bearer token for the API. The secret and audience
default to JWT_SECRET and JWT_AUDIENCE.`,
		Args: cobra.NoArgs,
		RunE: runTokenCmd,
	}

	cfg := loadConfig()
	cmd.Flags().StringP("subject", "s", "", "User id carried by the token (required)")
	cmd.Flags().String("secret", cfg.JWTSecret, "HMAC signing secret")
	cmd.Flags().String("audience", cfg.JWTAudience, "Token audience")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func runTokenCmd(cmd *cobra.Command, _ []string) error {
	subject, err := cmd.Flags().GetString("subject")
	if err != nil {
		return fmt.Errorf("failed to get subject flag: %w", err)
	}
	secret, err := cmd.Flags().GetString("secret")
	if err != nil {
		return fmt.Errorf("failed to get secret flag: %w", err)
	}
	audience, err := cmd.Flags().GetString("audience")
	if err != nil {
		return fmt.Errorf("failed to get audience flag: %w", err)
	}
	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return fmt.Errorf("failed to get ttl flag: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	token, err := auth.IssueToken(secret, audience, subject, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
