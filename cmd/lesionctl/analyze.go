package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anime-shed/lesion-inspector-go/internal/analyzer"
	"github.com/anime-shed/lesion-inspector-go/internal/repository"
	"github.com/anime-shed/lesion-inspector-go/internal/service"
	"github.com/anime-shed/lesion-inspector-go/pkg/models"
	"github.com/anime-shed/lesion-inspector-go/pkg/validation"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [image-file...]",
		Short: "Analyse one or more lesion photographs",
		Long: `Analyse lesion photographs and print one JSON result record per file,
in the order given. Files are processed concurrently.

With --user, successful analyses are also stored in the history database.
The command fails when any file could not be analysed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyzeCmd,
	}

	cfg := loadConfig()
	cmd.Flags().StringP("user", "u", "",
		"Store successful analyses in the history of this user")
	cmd.Flags().String("db", cfg.DatabasePath,
		"Path of the history database (used with --user)")
	cmd.Flags().IntP("workers", "w", cfg.AnalysisWorkers,
		"Parallel workers for files and filters (0 = one per CPU)")
	cmd.Flags().Int("max-pixels", cfg.MaxImagePixels,
		"Reject images with more pixels than this")
	cmd.Flags().BoolP("pretty", "p", false,
		"Indent the JSON output")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	userID, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("failed to get user flag: %w", err)
	}
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return fmt.Errorf("failed to get db flag: %w", err)
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}
	maxPixels, err := cmd.Flags().GetInt("max-pixels")
	if err != nil {
		return fmt.Errorf("failed to get max-pixels flag: %w", err)
	}
	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return fmt.Errorf("failed to get pretty flag: %w", err)
	}

	deps := service.Dependencies{
		Analyzer: analyzer.NewLesionAnalyzer(analyzer.DefaultOptions().
			WithMaxWorkers(workers).
			WithMaxPixels(maxPixels)),
		Uploads: validation.NewUploadValidator(0),
		Pool:    analyzer.NewWorkerPool(workers),
	}
	if userID != "" {
		history, err := repository.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer history.Close()
		deps.History = history
	}

	svc := service.NewLesionAnalysisService(deps)
	defer svc.Close()

	reqs := make([]service.UploadRequest, len(args))
	readErrs := make([]error, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			readErrs[i] = fmt.Errorf("cannot read image file: %w", err)
		}
		reqs[i] = service.UploadRequest{Filename: filepath.Base(path), Data: data}
	}

	results, err := svc.AnalyzeBatch(commandContext(cmd), userID, reqs)
	if err != nil {
		return err
	}
	for i, readErr := range readErrs {
		if readErr != nil {
			results[i] = models.NewFailureResult(readErr)
		}
	}

	failed, err := writeRecords(cmd, args, results, pretty)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(results))
	}
	return nil
}

// fileResult pairs a record with the file it came from
type fileResult struct {
	File string `json:"file"`
	models.AnalysisResult
}

func writeRecords(cmd *cobra.Command, files []string, results []models.AnalysisResult, pretty bool) (int, error) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}

	failed := 0
	for i, result := range results {
		if !result.Success {
			failed++
		}
		if err := enc.Encode(fileResult{File: files[i], AnalysisResult: result}); err != nil {
			return failed, fmt.Errorf("failed to write result: %w", err)
		}
	}
	return failed, nil
}

// commandContext returns the command context or a background one in tests
// that call RunE directly
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
