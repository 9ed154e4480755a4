package analyzer

import (
	"context"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// LesionAnalyzer defines the image-to-risk pipeline
type LesionAnalyzer interface {
	// Feature extraction, typed errors (*ExtractError) on bad input
	Extract(ctx context.Context, data []byte) (models.ImageFeatures, error)
	ExtractFile(ctx context.Context, path string) (models.ImageFeatures, error)

	// Full pipeline; failures are reported inside the record, never returned
	Analyze(ctx context.Context, data []byte) models.AnalysisResult
	AnalyzeFile(ctx context.Context, path string) models.AnalysisResult
}

// MetricsCalculator handles feature computation over normalized pixel planes
type MetricsCalculator interface {
	CalculateColorStatistics(img *rgbImage) (avgColor [3]float64, variation float64)
	CalculateAsymmetry(img *rgbImage) float64
	CalculateBorderIrregularity(ctx context.Context, luma *plane, workers int) (float64, error)
}
