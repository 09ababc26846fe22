package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-lookup/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// HTTPTimeout bounds outbound calls (0 = transport default).
	HTTPTimeout time.Duration

	// ErrorClearDelay is how long a city lookup error stays visible.
	ErrorClearDelay time.Duration

	// DeviceLocation is the fallback position used when a client posts no
	// geolocation report. Nil means no fallback.
	DeviceLocation *weather.Coordinates

	// Session retention.
	SessionTTL           time.Duration // idle time before a session is evicted (0 = never)
	SessionSweepInterval time.Duration

	Port string

	// Tracing. An empty collector endpoint keeps spans in-process.
	ServiceName           string
	OTelCollectorEndpoint string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	if cfg.ErrorClearDelay, err = getenvDuration("ERROR_CLEAR_DELAY", "5s"); err != nil {
		return nil, err
	}
	if cfg.ErrorClearDelay <= 0 {
		return nil, fmt.Errorf("invalid ERROR_CLEAR_DELAY: must be positive")
	}
	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL > 0 && cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: must be positive when SESSION_TTL is set")
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.ServiceName = getenvDefault("OTEL_SERVICE_NAME", "weather-lookup")
	cfg.OTelCollectorEndpoint = os.Getenv("OTEL_COLLECTOR_ENDPOINT")

	loc, err := loadDeviceLocation()
	if err != nil {
		return nil, err
	}
	cfg.DeviceLocation = loc

	return cfg, nil
}

func loadDeviceLocation() (*weather.Coordinates, error) {
	latStr := os.Getenv("DEVICE_LATITUDE")
	lonStr := os.Getenv("DEVICE_LONGITUDE")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid DEVICE_LATITUDE %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid DEVICE_LONGITUDE %q", lonStr)
	}
	return &weather.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
