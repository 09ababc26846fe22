package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/telemetry"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
	"github.com/i474232898/weather-lookup/internal/widget"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("ERROR: OPENWEATHER_API_KEY is not set; every lookup will fail")
	}

	// Tracing must be installed before any span is started.
	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Config{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTelCollectorEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	// Shared HTTP client for outbound weather API calls.
	httpClient := telemetry.NewHTTPClient(cfg.HTTPTimeout)

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	service := weather.NewService(provider)

	// Scheduler for error auto-clear tasks and session eviction.
	sched := scheduler.New()
	sched.Start()
	defer sched.Stop()

	sessions := store.NewMemoryStore(cfg.SessionTTL)
	if cfg.SessionTTL > 0 {
		err := sched.Every(cfg.SessionSweepInterval, "session-sweep", func() {
			if n := sessions.EvictIdle(time.Now()); n > 0 {
				log.Printf("INFO: evicted %d idle widget sessions", n)
			}
		})
		if err != nil {
			log.Fatalf("failed to schedule session sweep: %v", err)
		}
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-lookup",
			"sessions": sessions.Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, httpapi.Options{
		Sessions: sessions,
		NewWidget: func() *widget.Widget {
			return widget.New(service, sched, cfg.ErrorClearDelay)
		},
		DeviceFallback: weather.StaticLocator{Coords: cfg.DeviceLocation},
	})

	go func() {
		log.Printf("INFO: weather-lookup listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("ERROR: failed to flush traces: %v", err)
	}
}
