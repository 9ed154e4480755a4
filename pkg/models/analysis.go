package models

import "time"

// TimestampLayout is the fixed layout of AnalysisResult.AnalysisTimestamp
const TimestampLayout = "2006-01-02 15:04:05"

// ImageFeatures holds the statistics extracted from one normalized image.
// Values are produced once per analysis and never mutated afterwards.
type ImageFeatures struct {
	Width              int        `json:"width"`
	Height             int        `json:"height"`
	AvgColor           [3]float64 `json:"avg_color"`
	ColorVariation     float64    `json:"color_variation"`
	AsymmetryScore     float64    `json:"asymmetry_score"`
	BorderIrregularity float64    `json:"border_irregularity"`
}

// RiskLevel is the final three-way classification of a RiskAssessment
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelModerate RiskLevel = "MODERATE"
	RiskLevelHigh     RiskLevel = "HIGH"
)

// RiskAssessment is derived deterministically from ImageFeatures
type RiskAssessment struct {
	Score          int       `json:"score"`
	MaxScore       int       `json:"max_score"`
	Level          RiskLevel `json:"level"`
	Factors        []string  `json:"factors"`
	Recommendation string    `json:"recommendation"`
	SeverityClass  string    `json:"severity_class"`
}

// AnalysisReport carries the fields of a successful analysis.
// It is embedded by pointer in AnalysisResult so that a failed analysis
// serializes without any of these keys.
type AnalysisReport struct {
	ImageSize          [2]int         `json:"image_size"`
	AvgColor           [3]float64     `json:"avg_color"`
	ColorVariation     float64        `json:"color_variation"`
	AsymmetryScore     float64        `json:"asymmetry_score"`
	BorderIrregularity float64        `json:"border_irregularity"`
	RiskAssessment     RiskAssessment `json:"risk_assessment"`
	AnalysisTimestamp  string         `json:"analysis_timestamp"`
}

// AnalysisResult is the record handed back to every caller of the pipeline
// (upload handler, history persistence, API responder).
type AnalysisResult struct {
	Success bool `json:"success"`
	*AnalysisReport
	Error string `json:"error,omitempty"`
}

// NewSuccessResult assembles the record for a completed analysis
func NewSuccessResult(features ImageFeatures, assessment RiskAssessment, at time.Time) AnalysisResult {
	return AnalysisResult{
		Success: true,
		AnalysisReport: &AnalysisReport{
			ImageSize:          [2]int{features.Width, features.Height},
			AvgColor:           features.AvgColor,
			ColorVariation:     features.ColorVariation,
			AsymmetryScore:     features.AsymmetryScore,
			BorderIrregularity: features.BorderIrregularity,
			RiskAssessment:     assessment,
			AnalysisTimestamp:  at.Format(TimestampLayout),
		},
	}
}

// NewFailureResult assembles the record for a failed analysis
func NewFailureResult(err error) AnalysisResult {
	msg := "analysis failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return AnalysisResult{Success: false, Error: msg}
}

// ImageMetadata describes an image independently of its pixel statistics
type ImageMetadata struct {
	Format        string `json:"format"`
	ContentLength int64  `json:"content_length"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	CameraMake    string `json:"camera_make,omitempty"`
	CameraModel   string `json:"camera_model,omitempty"`
	CapturedAt    string `json:"captured_at,omitempty"`
	HasLocation   bool   `json:"has_location,omitempty"`
}

// Camera returns "make model" with empty parts dropped
func (m ImageMetadata) Camera() string {
	switch {
	case m.CameraMake != "" && m.CameraModel != "":
		return m.CameraMake + " " + m.CameraModel
	case m.CameraModel != "":
		return m.CameraModel
	default:
		return m.CameraMake
	}
}

// AnalysisRecord is the persisted summary of one successful analysis
type AnalysisRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Filename     string    `json:"filename"`
	RiskLevel    RiskLevel `json:"risk_level"`
	RiskScore    int       `json:"risk_score"`
	ImageFormat  string    `json:"image_format,omitempty"`
	Camera       string    `json:"camera,omitempty"`
	AnalysisDate time.Time `json:"analysis_date"`
}

// DashboardSummary aggregates the analysis history of one user
type DashboardSummary struct {
	TotalAnalyses int               `json:"total_analyses"`
	ByLevel       map[RiskLevel]int `json:"by_level"`
	Recent        []AnalysisRecord  `json:"recent"`
}
