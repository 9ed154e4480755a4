package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/lesion-inspector-go/internal/auth"
	"github.com/anime-shed/lesion-inspector-go/internal/config"
	apperrors "github.com/anime-shed/lesion-inspector-go/internal/errors"
	"github.com/anime-shed/lesion-inspector-go/internal/logger"
	"github.com/anime-shed/lesion-inspector-go/internal/service"
	"github.com/anime-shed/lesion-inspector-go/internal/version"
	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// defaultHistoryLimit applies when /api/history is called without ?limit=
const defaultHistoryLimit = 50

// multipartOverhead is the room left for multipart boundaries and headers
// on top of the upload size limits
const multipartOverhead = 64 * 1024

// NewHandler builds the HTTP API. gatherer may be nil, in which case
// /metrics is not served.
func NewHandler(svc service.LesionAnalysisService, cfg *config.Config, gatherer prometheus.Gatherer) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		errorHandler(),
	)

	singleLimit := requestSizeLimiter(cfg.MaxUploadSize + multipartOverhead)
	batchLimit := requestSizeLimiter(cfg.MaxBatchUploadSize + multipartOverhead)

	h := &handler{svc: svc, cfg: cfg}

	// Configure routes
	r.GET("/health", healthCheck)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if cfg.AuthEnabled() {
		// Analyses are open to anonymous callers; a valid token adds history
		api.Use(auth.JWTMiddleware(cfg.JWTSecret, cfg.JWTAudience, false))
	}
	api.POST("/analyze", singleLimit, h.analyzeUpload)
	api.POST("/analyze/url", singleLimit, h.analyzeURL)
	api.POST("/analyze/batch", batchLimit, h.analyzeBatch)

	if cfg.AuthEnabled() {
		private := api.Group("", auth.JWTMiddleware(cfg.JWTSecret, cfg.JWTAudience, true))
		private.GET("/history", h.history)
		private.GET("/history/:id", h.getAnalysis)
		private.GET("/dashboard", h.dashboard)
	}

	return r
}

type handler struct {
	svc service.LesionAnalysisService
	cfg *config.Config
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

func userID(c *gin.Context) string {
	id, _ := auth.GetUserID(c.Request.Context())
	return id
}

// analyzeUpload answers with the result record for every outcome
func (h *handler) analyzeUpload(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondRecordError(c, uploadError(err, "No file part in the request"))
		return
	}

	data, err := readUpload(fileHeader, h.cfg.MaxUploadSize)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	result, err := h.svc.AnalyzeUpload(ctx, service.UploadRequest{
		UserID:   userID(c),
		Filename: fileHeader.Filename,
		Data:     data,
	})
	respondRecord(c, result, err, logrus.Fields{"filename": fileHeader.Filename})
}

func (h *handler) analyzeURL(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req models.URLAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondRecordError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}

	result, err := h.svc.AnalyzeURL(ctx, userID(c), req.URL)
	respondRecord(c, result, err, logrus.Fields{"url": req.URL})
}

func (h *handler) analyzeBatch(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	form, err := c.MultipartForm()
	if err != nil {
		_ = c.Error(uploadError(err, "invalid multipart form"))
		return
	}

	headers := form.File["files"]
	reqs := make([]service.UploadRequest, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh, h.cfg.MaxUploadSize)
		if err != nil {
			_ = c.Error(err)
			return
		}
		reqs = append(reqs, service.UploadRequest{Filename: fh.Filename, Data: data})
	}

	results, err := h.svc.AnalyzeBatch(ctx, userID(c), reqs)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.BatchAnalysisResponse{Results: results})
}

func (h *handler) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.NewValidationError("limit must be an integer", err))
			return
		}
		limit = n
	}

	records, err := h.svc.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Analyses: records})
}

func (h *handler) getAnalysis(c *gin.Context) {
	record, err := h.svc.GetAnalysis(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *handler) dashboard(c *gin.Context) {
	summary, err := h.svc.Dashboard(c.Request.Context(), userID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version.Version(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// readUpload loads one multipart file, refusing files above limit
func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && fh.Size > limit {
		return nil, apperrors.NewTooLargeError(fmt.Sprintf("File exceeds the %d byte upload limit", limit), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("cannot read uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, uploadError(err, "cannot read uploaded file")
	}
	return data, nil
}

// uploadError distinguishes an oversized body from a malformed one
func uploadError(err error, message string) *apperrors.AppError {
	if isBodyTooLarge(err) {
		return apperrors.NewTooLargeError("request body too large", err)
	}
	return apperrors.NewValidationError(message, err)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart parsing does not always wrap the reader error
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"ip":          c.ClientIP(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if id := userID(c); id != "" {
			fields["user_id"] = id
		}
		logger.WithFields(fields).Info("Request completed")
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

// respondRecord writes the analysis record with the status its error maps to
func respondRecord(c *gin.Context, result models.AnalysisResult, err error, fields logrus.Fields) {
	status := http.StatusOK
	entry := logger.WithFields(fields).WithField("ip", c.ClientIP())

	if err != nil {
		status = apperrors.GetStatusCode(err)
		entry.WithError(err).WithField("status_code", status).Warn("Lesion analysis rejected")
	} else {
		entry.WithFields(logrus.Fields{
			"risk_level": result.RiskAssessment.Level,
			"risk_score": result.RiskAssessment.Score,
		}).Info("Lesion analysis completed successfully")
	}

	c.JSON(status, result)
}

func respondRecordError(c *gin.Context, err error) {
	appErr := apperrors.Classify(err, "request processing failed")
	respondRecord(c, models.NewFailureResult(errors.New(appErr.Message)), appErr, logrus.Fields{})
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.Classify(err, "request processing failed")
	code := appErr.StatusCode

	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	message := appErr.Message
	if appErr.Details != "" {
		message = fmt.Sprintf("%s (%s)", message, appErr.Details)
	}
	text := http.StatusText(code)
	if text == "" {
		text = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   text,
		Message: message,
	})
}
