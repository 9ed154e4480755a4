package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/lesion-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/lesion-inspector-go/internal/errors"
	"github.com/anime-shed/lesion-inspector-go/internal/logger"
	"github.com/anime-shed/lesion-inspector-go/internal/metadata"
	"github.com/anime-shed/lesion-inspector-go/internal/observer"
	"github.com/anime-shed/lesion-inspector-go/internal/repository"
	"github.com/anime-shed/lesion-inspector-go/pkg/models"
	"github.com/anime-shed/lesion-inspector-go/pkg/validation"
)

// UploadRequest is one uploaded photograph. An empty UserID means the
// caller is anonymous and nothing is written to history.
type UploadRequest struct {
	UserID   string
	Filename string
	Data     []byte
}

// LesionAnalysisService defines the use cases offered to the transports
type LesionAnalysisService interface {
	// Analysis methods always return a record; the error carries the
	// status (validation, processing, timeout, network) when it failed
	AnalyzeUpload(ctx context.Context, req UploadRequest) (models.AnalysisResult, error)
	AnalyzeURL(ctx context.Context, userID, imageURL string) (models.AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, userID string, reqs []UploadRequest) ([]models.AnalysisResult, error)

	// History methods
	History(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, userID, id string) (*models.AnalysisRecord, error)
	Dashboard(ctx context.Context, userID string) (*models.DashboardSummary, error)

	Close()
}

// Dependencies groups the collaborators of the service. Analyzer is
// required; Images and History may be nil when URL analysis or history are
// not configured.
type Dependencies struct {
	Analyzer analyzer.LesionAnalyzer
	Images   repository.ImageRepository
	History  repository.AnalysisRepository
	Uploads  *validation.UploadValidator
	Events   observer.Subject
	Pool     *analyzer.WorkerPool

	// Upper bound for a single analysis; 0 disables it
	AnalysisTimeout time.Duration
}

// lesionAnalysisService implements LesionAnalysisService
type lesionAnalysisService struct {
	analyzer analyzer.LesionAnalyzer
	images   repository.ImageRepository
	history  repository.AnalysisRepository
	uploads  *validation.UploadValidator
	events   observer.Subject
	pool     *analyzer.WorkerPool
	timeout  time.Duration
}

// NewLesionAnalysisService creates the service and starts its worker pool
func NewLesionAnalysisService(deps Dependencies) LesionAnalysisService {
	s := &lesionAnalysisService{
		analyzer: deps.Analyzer,
		images:   deps.Images,
		history:  deps.History,
		uploads:  deps.Uploads,
		events:   deps.Events,
		pool:     deps.Pool,
		timeout:  deps.AnalysisTimeout,
	}
	if s.uploads == nil {
		s.uploads = validation.NewUploadValidator(0)
	}
	if s.events == nil {
		s.events = observer.NewEventPublisher()
	}
	if s.pool == nil {
		s.pool = analyzer.NewWorkerPool(0)
	}
	s.pool.Start()
	return s
}

// AnalyzeUpload validates and analyses one uploaded photograph
func (s *lesionAnalysisService) AnalyzeUpload(ctx context.Context, req UploadRequest) (models.AnalysisResult, error) {
	if err := s.uploads.ValidateUpload(req.Filename, int64(len(req.Data))); err != nil {
		return failureRecord(err), err
	}
	return s.analyze(ctx, req.UserID, validation.StoredFilename(req.Filename), req.Data)
}

// AnalyzeURL downloads and analyses a remote photograph
func (s *lesionAnalysisService) AnalyzeURL(ctx context.Context, userID, imageURL string) (models.AnalysisResult, error) {
	if s.images == nil {
		err := apperrors.NewInternalError("URL analysis is not configured", nil)
		return failureRecord(err), err
	}

	start := time.Now()
	data, err := s.images.FetchImage(ctx, imageURL)
	if err != nil {
		appErr := classifyFetchError(err)
		s.events.NotifyObservers(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         imageURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   appErr.Error(),
		})
		return failureRecord(appErr), appErr
	}

	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		Source:         imageURL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]string{"bytes": strconv.Itoa(len(data))},
	})

	return s.analyze(ctx, userID, imageURL, data)
}

// AnalyzeBatch analyses every upload on the worker pool. Results keep the
// order of reqs and each one carries its own success or failure; the error
// is only set when the batch itself is unusable.
func (s *lesionAnalysisService) AnalyzeBatch(ctx context.Context, userID string, reqs []UploadRequest) ([]models.AnalysisResult, error) {
	if len(reqs) == 0 {
		return nil, apperrors.NewValidationError("No files selected", nil)
	}

	results := make([]models.AnalysisResult, len(reqs))
	var wg sync.WaitGroup

	for i := range reqs {
		req := reqs[i]
		req.UserID = userID

		wg.Add(1)
		submitted := s.pool.Submit(func() {
			defer wg.Done()
			results[i], _ = s.AnalyzeUpload(ctx, req)
		})
		if !submitted {
			wg.Done()
			results[i] = failureRecord(apperrors.NewInternalError("service is shutting down", nil))
		}
	}

	wg.Wait()
	return results, nil
}

// History lists the stored analyses of userID, newest first
func (s *lesionAnalysisService) History(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error) {
	if err := s.requireHistory(userID); err != nil {
		return nil, err
	}

	records, err := s.history.ListAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Classify(err, "failed to load history")
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}
	return records, nil
}

// GetAnalysis returns one stored analysis owned by userID
func (s *lesionAnalysisService) GetAnalysis(ctx context.Context, userID, id string) (*models.AnalysisRecord, error) {
	if err := s.requireHistory(userID); err != nil {
		return nil, err
	}

	record, err := s.history.GetAnalysis(ctx, userID, id)
	if errors.Is(err, repository.ErrAnalysisNotFound) {
		return nil, apperrors.NewNotFoundError("analysis not found", err)
	}
	if err != nil {
		return nil, apperrors.Classify(err, "failed to load analysis")
	}
	return record, nil
}

// Dashboard summarizes the history of userID
func (s *lesionAnalysisService) Dashboard(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	if err := s.requireHistory(userID); err != nil {
		return nil, err
	}

	summary, err := s.history.Summarize(ctx, userID)
	if err != nil {
		return nil, apperrors.Classify(err, "failed to build dashboard")
	}
	return summary, nil
}

// Close stops the worker pool once queued analyses have completed
func (s *lesionAnalysisService) Close() {
	s.pool.Close()
}

// analyze runs the core pipeline under the analysis timeout, publishes the
// outcome and stores successful results for authenticated users
func (s *lesionAnalysisService) analyze(ctx context.Context, userID, source string, data []byte) (models.AnalysisResult, error) {
	start := time.Now()
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Source:    source,
	})

	analysisCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	result := s.analyzer.Analyze(analysisCtx, data)
	elapsed := time.Since(start)

	if !result.Success {
		var appErr *apperrors.AppError
		switch ctxErr := analysisCtx.Err(); {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			appErr = apperrors.NewTimeoutError("image analysis did not finish in time", ctxErr)
		case errors.Is(ctxErr, context.Canceled):
			appErr = apperrors.NewCanceledError("image analysis was canceled", ctxErr)
		default:
			appErr = apperrors.NewProcessingError("image analysis failed", errors.New(result.Error))
		}

		s.events.NotifyObservers(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			Source:         source,
			ProcessingTime: elapsed,
			ErrorMessage:   result.Error,
		})
		return result, appErr
	}

	assessment := result.RiskAssessment
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Source:         source,
		ProcessingTime: elapsed,
		Success:        true,
		RiskLevel:      assessment.Level,
		Score:          assessment.Score,
	})

	s.saveHistory(ctx, userID, source, data, assessment)
	return result, nil
}

// saveHistory never fails the analysis; storage problems are logged
func (s *lesionAnalysisService) saveHistory(ctx context.Context, userID, source string, data []byte, assessment models.RiskAssessment) {
	if userID == "" || s.history == nil {
		return
	}

	meta := metadata.Inspect(data)
	record := &models.AnalysisRecord{
		UserID:      userID,
		Filename:    source,
		RiskLevel:   assessment.Level,
		RiskScore:   assessment.Score,
		ImageFormat: meta.Format,
		Camera:      meta.Camera(),
	}

	if err := s.history.SaveAnalysis(ctx, record); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"source":  source,
		}).Warn("Failed to store analysis in history")
		return
	}

	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.HistorySaved,
		Source:    source,
		Success:   true,
		RiskLevel: record.RiskLevel,
		Score:     record.RiskScore,
		Metadata:  map[string]string{"user_id": userID, "analysis_id": record.ID},
	})
}

func (s *lesionAnalysisService) requireHistory(userID string) error {
	if userID == "" {
		return apperrors.NewUnauthorizedError("authentication required", nil)
	}
	if s.history == nil {
		return apperrors.NewInternalError("analysis history is not available", repository.ErrRepositoryUnavailable)
	}
	return nil
}

func (s *lesionAnalysisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// classifyFetchError maps image source failures onto API errors
func classifyFetchError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("image fetch timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewCanceledError("image fetch was canceled", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}

// failureRecord builds the record returned alongside err, using the
// client-facing message only
func failureRecord(err error) models.AnalysisResult {
	if appErr, ok := apperrors.As(err); ok {
		return models.NewFailureResult(errors.New(appErr.Message))
	}
	return models.NewFailureResult(err)
}
