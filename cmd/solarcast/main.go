package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/solarcast/solarcast/internal/api/http"
	"github.com/solarcast/solarcast/internal/config"
	"github.com/solarcast/solarcast/internal/ensemble"
	"github.com/solarcast/solarcast/internal/export"
	"github.com/solarcast/solarcast/internal/geo"
	"github.com/solarcast/solarcast/internal/nasapower"
	"github.com/solarcast/solarcast/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound NASA POWER calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// NASA POWER client with resilience (backoff + circuit breaker).
	client := nasapower.NewClient(nasapower.Config{
		BaseURL:    cfg.NASAPowerBaseURL,
		Client:     httpClient,
		MaxRetries: cfg.FetchMaxRetries,
		RetryDelay: cfg.FetchRetryDelay,
	})

	// Ensemble predictor. A missing artifact is not fatal at startup; the
	// health endpoints report it and /api/v1/reload-model can recover.
	predictor := ensemble.NewHandler(cfg.ModelPath)
	if err := predictor.Load(); err != nil {
		log.Printf("ERROR: model not loaded at startup: %v", err)
	}

	// Location resolution for city-based requests.
	resolver := geo.NewResolver(cfg.GeocoderAPIKey)

	// Ephemeral export store with retention janitor.
	exports := export.NewStore(cfg.ExportMaxHistory, cfg.ExportMaxAge)
	janitor := scheduler.NewJanitor(exports, cfg.ExportSweepInterval)
	if err := janitor.Start(); err != nil {
		log.Fatalf("failed to start export janitor: %v", err)
	}
	defer janitor.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "solarcast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          120 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Services{
		Client:    client,
		Predictor: predictor,
		Resolver:  resolver,
		Exports:   exports,
		MADPerKWh: cfg.MADPerKWh,
	})

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
