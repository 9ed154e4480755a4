package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/lesion-inspector-go/internal/config"
	"github.com/anime-shed/lesion-inspector-go/internal/container"
	"github.com/anime-shed/lesion-inspector-go/internal/logger"
	"github.com/anime-shed/lesion-inspector-go/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Error("Failed to release resources")
		}
	}()

	// Create HTTP server with configurable timeouts
	server := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"address":      cfg.ServerAddress(),
			"timeout":      cfg.RequestTimeout.String(),
			"storage":      cfg.StorageBackend,
			"database":     cfg.DatabasePath,
			"auth_enabled": cfg.AuthEnabled(),
			"version":      version.Version(),
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.WithError(err).Error("Failed to start server")
		return
	case <-quit:
	}

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}

	logger.Info("Server exited")
}
