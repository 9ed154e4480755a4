package models

// URLAnalysisRequest represents a request to analyze a remote image
type URLAnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// BatchAnalysisResponse wraps the records of a batch upload, in input order
type BatchAnalysisResponse struct {
	Results []AnalysisResult `json:"results"`
}

// HistoryResponse lists stored analyses, newest first
type HistoryResponse struct {
	Analyses []AnalysisRecord `json:"analyses"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
