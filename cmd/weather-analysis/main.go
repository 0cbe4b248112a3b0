package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-analysis/internal/api/http"
	"github.com/i474232898/weather-analysis/internal/config"
	"github.com/i474232898/weather-analysis/internal/geocode"
	"github.com/i474232898/weather-analysis/internal/logger"
	"github.com/i474232898/weather-analysis/internal/scheduler"
	"github.com/i474232898/weather-analysis/internal/store"
	"github.com/i474232898/weather-analysis/internal/weather"
	"github.com/i474232898/weather-analysis/internal/weather/providers"
)

func main() {
	dotenvErr := config.LoadDotenv()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "").Fatalf("failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	if dotenvErr != nil {
		log.Infof("no .env file loaded: %v", dotenvErr)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// History sources with resilience (backoff + circuit breaker), in fallback order.
	var sources []weather.HistorySource
	for _, name := range cfg.HistorySources {
		switch name {
		case config.SourceNASAPower:
			sources = append(sources, providers.NewNASAPowerProvider(httpClient, cfg.NASAPowerURL))
		case config.SourceOpenMeteo:
			sources = append(sources, providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoArchiveURL))
		}
	}

	service := weather.NewService(sources, weather.Options{
		LookbackYears: cfg.LookbackYears,
		FetchTimeout:  cfg.FetchTimeout,
	}, log)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically analyzes watched locations.
	watchlist := make([]weather.AnalysisRequest, 0, len(cfg.Watchlist))
	for _, e := range cfg.Watchlist {
		watchlist = append(watchlist, e.Request())
	}
	sched := scheduler.New(watchlist, cfg.WatchInterval, 2*cfg.FetchTimeout, service, memStore, log)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-analysis",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.FetchTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-analysis",
			"sources": cfg.HistorySources,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, memStore, geocode.NewResolver(cfg.GeocodingAPIKey))

	go func() {
		log.Infof("listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
