package repository

import (
	"context"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// ImageRepository defines access to remote lesion images
type ImageRepository interface {
	// FetchImage validates imageURL and downloads the raw bytes
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// AnalysisRepository stores the analysis history of each user
type AnalysisRepository interface {
	// SaveAnalysis stores a record, assigning ID and AnalysisDate when unset
	SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error

	// GetAnalysis returns ErrAnalysisNotFound unless id belongs to userID
	GetAnalysis(ctx context.Context, userID, id string) (*models.AnalysisRecord, error)

	// ListAnalyses returns newest first; limit <= 0 returns everything
	ListAnalyses(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error)

	// Summarize counts analyses per level and returns the most recent ones
	Summarize(ctx context.Context, userID string) (*models.DashboardSummary, error)

	Close() error
}
