package analyzer

import (
	"context"
	"os"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
	"github.com/anime-shed/lesion-inspector-go/pkg/risk"
)

// coreAnalyzer implements LesionAnalyzer and orchestrates all components
type coreAnalyzer struct {
	options           AnalysisOptions
	metricsCalculator MetricsCalculator
	scorer            *risk.Scorer
}

// NewLesionAnalyzer creates a new lesion analyzer with all components
func NewLesionAnalyzer(options AnalysisOptions) LesionAnalyzer {
	return &coreAnalyzer{
		options:           options,
		metricsCalculator: NewMetricsCalculator(),
		scorer:            risk.NewScorer(),
	}
}

// Extract decodes data and computes its features. The returned error is an
// *ExtractError for bad input, or the context error if ctx ends first.
func (ca *coreAnalyzer) Extract(ctx context.Context, data []byte) (ImageFeatures, error) {
	if err := ctx.Err(); err != nil {
		return ImageFeatures{}, err
	}

	img, err := decodeRGB(data, ca.options.MaxPixels)
	if err != nil {
		return ImageFeatures{}, err
	}
	workers := ca.options.workers()

	// Edges are measured on the decoded image, before any enhancement
	luma := luminance(img)

	enhanced := enhanceContrast(img, luma, ContrastFactor)
	if err := ctx.Err(); err != nil {
		return ImageFeatures{}, err
	}

	smoothed, err := gaussianBlur(ctx, enhanced, BlurSigma, workers)
	if err != nil {
		return ImageFeatures{}, err
	}

	avgColor, variation := ca.metricsCalculator.CalculateColorStatistics(smoothed)
	asymmetry := ca.metricsCalculator.CalculateAsymmetry(smoothed)

	border, err := ca.metricsCalculator.CalculateBorderIrregularity(ctx, luma, workers)
	if err != nil {
		return ImageFeatures{}, err
	}

	return ImageFeatures{
		Width:              img.width,
		Height:             img.height,
		AvgColor:           avgColor,
		ColorVariation:     variation,
		AsymmetryScore:     asymmetry,
		BorderIrregularity: border,
	}, nil
}

// ExtractFile reads the file at path and extracts its features
func (ca *coreAnalyzer) ExtractFile(ctx context.Context, path string) (ImageFeatures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImageFeatures{}, newDecodeError("cannot read image file", err)
	}
	return ca.Extract(ctx, data)
}

// Analyze runs the full pipeline. Failures are reported in the record.
func (ca *coreAnalyzer) Analyze(ctx context.Context, data []byte) models.AnalysisResult {
	features, err := ca.Extract(ctx, data)
	if err != nil {
		return models.NewFailureResult(err)
	}
	return models.NewSuccessResult(features, ca.scorer.Score(features), ca.options.now())
}

// AnalyzeFile runs the full pipeline on the file at path
func (ca *coreAnalyzer) AnalyzeFile(ctx context.Context, path string) models.AnalysisResult {
	features, err := ca.ExtractFile(ctx, path)
	if err != nil {
		return models.NewFailureResult(err)
	}
	return models.NewSuccessResult(features, ca.scorer.Score(features), ca.options.now())
}
