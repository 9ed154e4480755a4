package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for URL analysis
const (
	StorageBackendHTTP  = "http"
	StorageBackendAzure = "azure"
)

type Config struct {
	Host              string        `yaml:"host"`
	Port              string        `yaml:"port"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ImageFetchTimeout time.Duration `yaml:"image_fetch_timeout"`
	AnalysisTimeout   time.Duration `yaml:"analysis_timeout"`

	MaxUploadSize      int64 `yaml:"max_upload_size"`
	MaxBatchUploadSize int64 `yaml:"max_batch_upload_size"`
	MaxImagePixels     int   `yaml:"max_image_pixels"`
	AnalysisWorkers    int   `yaml:"analysis_workers"`

	DatabasePath string `yaml:"database_path"`

	JWTSecret   string `yaml:"jwt_secret"`
	JWTAudience string `yaml:"jwt_audience"`

	StorageBackend      string `yaml:"storage_backend"`
	AzureStorageAccount string `yaml:"azure_storage_account"`
	AzureStorageKey     string `yaml:"azure_storage_key"`

	LogLevel string `yaml:"log_level"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AuthEnabled reports whether JWT-protected routes are served
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     30 * time.Second,
		ImageFetchTimeout:  15 * time.Second,
		AnalysisTimeout:    20 * time.Second,
		MaxUploadSize:      16 * 1024 * 1024, // 16MB
		MaxBatchUploadSize: 64 * 1024 * 1024, // whole batch request
		MaxImagePixels:     40_000_000,
		AnalysisWorkers:    0,
		DatabasePath:       "lesion_analyses.db",
		StorageBackend:     StorageBackendHTTP,
		LogLevel:           "info",
	}
}

// LoadFromEnv builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and environment variables, in that order
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ImageFetchTimeout = parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", cfg.ImageFetchTimeout)
	cfg.AnalysisTimeout = parseDurationOrDefault("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout)
	cfg.MaxUploadSize = parseIntOrDefault("MAX_UPLOAD_SIZE", cfg.MaxUploadSize)
	cfg.MaxBatchUploadSize = parseIntOrDefault("MAX_BATCH_UPLOAD_SIZE", cfg.MaxBatchUploadSize)
	cfg.MaxImagePixels = int(parseIntOrDefault("MAX_IMAGE_PIXELS", int64(cfg.MaxImagePixels)))
	cfg.AnalysisWorkers = int(parseIntOrDefault("ANALYSIS_WORKERS", int64(cfg.AnalysisWorkers)))
	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", cfg.DatabasePath)
	cfg.JWTSecret = getEnvOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTAudience = getEnvOrDefault("JWT_AUDIENCE", cfg.JWTAudience)
	cfg.StorageBackend = strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", cfg.StorageBackend))
	cfg.AzureStorageAccount = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.AzureStorageAccount)
	cfg.AzureStorageKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.AzureStorageKey)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.MaxBatchUploadSize < c.MaxUploadSize {
		return fmt.Errorf("MAX_BATCH_UPLOAD_SIZE must be >= MAX_UPLOAD_SIZE (got %d < %d)",
			c.MaxBatchUploadSize, c.MaxUploadSize)
	}
	if c.MaxImagePixels < 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be >= 0 (got %d)", c.MaxImagePixels)
	}
	if c.AnalysisWorkers < 0 {
		return fmt.Errorf("ANALYSIS_WORKERS must be >= 0 (got %d)", c.AnalysisWorkers)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	switch c.StorageBackend {
	case StorageBackendHTTP:
	case StorageBackendAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("STORAGE_BACKEND=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %q", c.StorageBackend)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
