package repository

import "errors"

var (
	// ErrAnalysisNotFound indicates the analysis record was not found
	ErrAnalysisNotFound = errors.New("analysis record not found")

	// ErrRepositoryUnavailable indicates the history store cannot be used
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
