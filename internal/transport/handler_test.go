package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/lesion-inspector-go/internal/analyzer"
	"github.com/anime-shed/lesion-inspector-go/internal/auth"
	"github.com/anime-shed/lesion-inspector-go/internal/config"
	"github.com/anime-shed/lesion-inspector-go/internal/observer"
	"github.com/anime-shed/lesion-inspector-go/internal/repository"
	"github.com/anime-shed/lesion-inspector-go/internal/service"
	"github.com/anime-shed/lesion-inspector-go/internal/storage"
	"github.com/anime-shed/lesion-inspector-go/pkg/models"
	"github.com/anime-shed/lesion-inspector-go/pkg/validation"
)

const testSecret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func lesionPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.RGBA{R: 150, G: 90, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type testServer struct {
	handler http.Handler
	cfg     *config.Config
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = testSecret
	cfg.RequestTimeout = 5 * time.Second
	if mutate != nil {
		mutate(cfg)
	}

	history, err := repository.OpenSQLite(repository.MemoryDatabase)
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	reg := prometheus.NewRegistry()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewMetricsObserver(reg))

	fetcher := storage.NewHTTPImageFetcher(storage.HTTPFetcherOptions{
		Timeout:  time.Second,
		MaxBytes: cfg.MaxUploadSize,
		Backoff:  time.Millisecond,
	})

	svc := service.NewLesionAnalysisService(service.Dependencies{
		Analyzer:        analyzer.NewLesionAnalyzer(analyzer.DefaultOptions().WithMaxWorkers(2)),
		Images:          repository.NewRemoteImageRepository(fetcher, nil),
		History:         history,
		Uploads:         validation.NewUploadValidator(cfg.MaxUploadSize),
		Events:          events,
		Pool:            analyzer.NewWorkerPool(2),
		AnalysisTimeout: cfg.AnalysisTimeout,
	})
	t.Cleanup(svc.Close)

	return &testServer{handler: NewHandler(svc, cfg, reg), cfg: cfg}
}

type upload struct {
	field    string
	filename string
	data     []byte
}

func multipartRequest(t *testing.T, path string, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := w.CreateFormFile(u.field, u.filename)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, req *http.Request, subject string) *http.Request {
	t.Helper()
	token, err := auth.IssueToken(testSecret, "", subject, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) models.AnalysisResult {
	t.Helper()
	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	return result
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"available"`)
}

func TestAnalyzeUpload(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(multipartRequest(t, "/api/analyze", upload{"file", "mole.png", lesionPNG(t)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeRecord(t, rec)
	assert.True(t, result.Success)
	require.NotNil(t, result.AnalysisReport)
	assert.Equal(t, [2]int{6, 6}, result.ImageSize)
	assert.Equal(t, 7, result.RiskAssessment.MaxScore)
}

func TestAnalyzeUpload_Failures(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.MaxUploadSize = 2048 })

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{
			name:       "missing file part",
			req:        multipartRequest(t, "/api/analyze", upload{"other", "mole.png", lesionPNG(t)}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong extension",
			req:        multipartRequest(t, "/api/analyze", upload{"file", "mole.exe", lesionPNG(t)}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "corrupt image",
			req:        multipartRequest(t, "/api/analyze", upload{"file", "mole.png", []byte("not an image")}),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "file above upload limit",
			req:        multipartRequest(t, "/api/analyze", upload{"file", "mole.png", make([]byte, 4096)}),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "body above request limit",
			req:        multipartRequest(t, "/api/analyze", upload{"file", "mole.png", make([]byte, 256*1024)}),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			result := decodeRecord(t, rec)
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)

			var keys map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
			assert.Len(t, keys, 2)
		})
	}
}

func TestAnalyzeURL(t *testing.T) {
	data := lesionPNG(t)
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mole.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer images.Close()

	s := newTestServer(t, nil)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze/url", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return s.do(req)
	}

	rec := post(`{"url":"` + images.URL + `/mole.png"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeRecord(t, rec).Success)

	rec = post(`{"url":"` + images.URL + `/missing.png"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, decodeRecord(t, rec).Success)

	rec = post(`{"link":"nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeBatch(t *testing.T) {
	s := newTestServer(t, nil)
	good := lesionPNG(t)

	rec := s.do(multipartRequest(t, "/api/analyze/batch",
		upload{"files", "one.png", good},
		upload{"files", "two.gif", []byte("broken")},
		upload{"files", "three.png", good},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.BatchAnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
	assert.True(t, resp.Results[2].Success)

	rec = s.do(multipartRequest(t, "/api/analyze/batch"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files selected")
}

func TestAnalyzeBatch_BodyLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.MaxUploadSize = 48 * 1024
		cfg.MaxBatchUploadSize = 128 * 1024
	})

	files := func(n int) []upload {
		uploads := make([]upload, n)
		for i := range uploads {
			uploads[i] = upload{"files", "mole.png", bytes.Repeat([]byte{'x'}, 40*1024)}
		}
		return uploads
	}

	// Larger than one file's request limit, within the batch limit
	rec := s.do(multipartRequest(t, "/api/analyze/batch", files(3)...))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.BatchAnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 3)

	rec = s.do(multipartRequest(t, "/api/analyze/batch", files(5)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())

	// The single-file route keeps its own limit
	rec = s.do(multipartRequest(t, "/api/analyze", upload{"file", "mole.png", bytes.Repeat([]byte{'x'}, 120*1024)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHistoryRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	uploadReq := multipartRequest(t, "/api/analyze", upload{"file", "mole.png", lesionPNG(t)})
	require.Equal(t, http.StatusOK, s.do(bearer(t, uploadReq, "alice")).Code)

	rec = s.do(bearer(t, httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil), "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	var history models.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Analyses, 1)
	id := history.Analyses[0].ID

	rec = s.do(bearer(t, httptest.NewRequest(http.MethodGet, "/api/history/"+id, nil), "alice"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Records are private to their owner
	rec = s.do(bearer(t, httptest.NewRequest(http.MethodGet, "/api/history/"+id, nil), "mallory"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(bearer(t, httptest.NewRequest(http.MethodGet, "/api/history?limit=lots", nil), "alice"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(bearer(t, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.DashboardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalAnalyses)
}

func TestHistoryRoutes_DisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.JWTSecret = "" })

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(multipartRequest(t, "/api/analyze", upload{"file", "mole.png", lesionPNG(t)}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(multipartRequest(t, "/api/analyze", upload{"file", "mole.png", lesionPNG(t)})).Code)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lesion_inspector_analyses_total{outcome="success",risk_level="LOW"} 1`)
}
