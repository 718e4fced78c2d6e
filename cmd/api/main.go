package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepass/internal/config"
	"coursepass/internal/database"
	"coursepass/internal/export"
	"coursepass/internal/handler"
	"coursepass/internal/repository"
	"coursepass/internal/router"
	"coursepass/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting coursepass API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	courseRepo := repository.NewCourseRepository(pool, logger)
	voucherRepo := repository.NewVoucherRepository(pool, logger)
	enrollmentRepo := repository.NewEnrollmentRepository(pool, logger)
	redemptionRepo := repository.NewRedemptionRepository(pool, logger)

	// Initialize batch code exporter with S3 and local fallback
	fileExporter := export.NewFileExporter("data/exports", logger)
	var exporter export.Exporter

	if cfg.S3.Enabled {
		s3Exporter, err := export.NewS3Exporter(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 exporter, falling back to local file system only")
			exporter = fileExporter
		} else {
			exporter = export.NewFallbackExporter(s3Exporter, fileExporter, logger)
		}
	} else {
		exporter = fileExporter
		logger.Info().Msg("using local file system for code batch exports (S3 disabled)")
	}

	// Initialize services
	redemptionService := service.NewRedemptionService(voucherRepo, enrollmentRepo, redemptionRepo, courseRepo, logger)
	codeService := service.NewCodeService(voucherRepo, courseRepo, exporter, logger)

	// Initialize HTTP handlers
	redemptionHandler := handler.NewRedemptionHandler(redemptionService, logger)
	codeHandler := handler.NewCodeHandler(codeService, logger)

	// Initialize router
	mux := router.New(redemptionHandler, codeHandler, cfg.Auth.AdminAPIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
