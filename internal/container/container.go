package container

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/anime-shed/lesion-inspector-go/internal/analyzer"
	"github.com/anime-shed/lesion-inspector-go/internal/config"
	"github.com/anime-shed/lesion-inspector-go/internal/factory"
	"github.com/anime-shed/lesion-inspector-go/internal/logger"
	"github.com/anime-shed/lesion-inspector-go/internal/observer"
	"github.com/anime-shed/lesion-inspector-go/internal/repository"
	"github.com/anime-shed/lesion-inspector-go/internal/service"
	"github.com/anime-shed/lesion-inspector-go/internal/storage"
	"github.com/anime-shed/lesion-inspector-go/internal/transport"
	"github.com/anime-shed/lesion-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config                *config.Config
	registry              *prometheus.Registry
	imageFetcher          storage.ImageFetcher
	lesionAnalyzer        analyzer.LesionAnalyzer
	imageRepository       repository.ImageRepository
	analysisRepository    repository.AnalysisRepository
	lesionAnalysisService service.LesionAnalysisService
	handler               http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	// Build dependency graph
	storageFactory := factory.NewStorageFactory(factory.StorageSettings{
		HTTP: storage.HTTPFetcherOptions{
			Timeout:  cfg.ImageFetchTimeout,
			MaxBytes: cfg.MaxUploadSize,
			Backoff:  storage.DefaultHTTPFetcherOptions().Backoff,
		},
		AzureAccount: cfg.AzureStorageAccount,
		AzureKey:     cfg.AzureStorageKey,
	})
	imageFetcher, err := storageFactory.CreateStorage(factory.StorageType(cfg.StorageBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create image storage: %w", err)
	}

	var urlValidator *validation.URLValidator
	if cfg.StorageBackend == config.StorageBackendAzure {
		urlValidator = validation.NewBlobURLValidator(cfg.AzureStorageAccount)
	}
	imageRepository := repository.NewRemoteImageRepository(imageFetcher, urlValidator)

	analysisRepository, err := repository.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis history: %w", err)
	}

	options := analyzer.DefaultOptions().
		WithMaxWorkers(cfg.AnalysisWorkers).
		WithMaxPixels(cfg.MaxImagePixels)
	lesionAnalyzer := analyzer.NewLesionAnalyzer(options)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pool := analyzer.NewWorkerPool(cfg.AnalysisWorkers)
	observer.RegisterPoolMetrics(registry, pool)

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(observer.NewMetricsObserver(registry))

	lesionAnalysisService := service.NewLesionAnalysisService(service.Dependencies{
		Analyzer:        lesionAnalyzer,
		Images:          imageRepository,
		History:         analysisRepository,
		Uploads:         validation.NewUploadValidator(cfg.MaxUploadSize),
		Events:          events,
		Pool:            pool,
		AnalysisTimeout: cfg.AnalysisTimeout,
	})

	handler := transport.NewHandler(lesionAnalysisService, cfg, registry)

	return &Container{
		config:                cfg,
		registry:              registry,
		imageFetcher:          imageFetcher,
		lesionAnalyzer:        lesionAnalyzer,
		imageRepository:       imageRepository,
		analysisRepository:    analysisRepository,
		lesionAnalysisService: lesionAnalysisService,
		handler:               handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the lesion analysis service
func (c *Container) Service() service.LesionAnalysisService {
	return c.lesionAnalysisService
}

// Analyzer returns the core lesion analyzer
func (c *Container) Analyzer() analyzer.LesionAnalyzer {
	return c.lesionAnalyzer
}

// Close drains the worker pool and closes the history database
func (c *Container) Close() error {
	c.lesionAnalysisService.Close()
	return c.analysisRepository.Close()
}
