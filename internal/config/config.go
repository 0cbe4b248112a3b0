package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-analysis/internal/weather"
)

// Known history source names, in default fallback order.
const (
	SourceNASAPower = "nasapower"
	SourceOpenMeteo = "openmeteo"
)

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string

	// HistorySources lists providers in the order the orchestrator tries them.
	HistorySources      []string
	NASAPowerURL        string
	OpenMeteoArchiveURL string
	LookbackYears       int
	HTTPTimeout         time.Duration // per outbound HTTP call
	FetchTimeout        time.Duration // whole history fetch, all sources included

	GeocodingAPIKey string

	// Watchlist refresh.
	Watchlist     []WatchEntry
	WatchInterval time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of analyses per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of analyses (0 = unlimited)
}

// WatchEntry is one location the scheduler analyzes periodically.
type WatchEntry struct {
	Name           string  `yaml:"name"`
	Lat            float64 `yaml:"lat"`
	Lon            float64 `yaml:"lon"`
	UserType       string  `yaml:"user_type"`
	PredictionDays int     `yaml:"prediction_days"`
}

// Request converts the entry into an analysis request.
func (e WatchEntry) Request() weather.AnalysisRequest {
	return weather.AnalysisRequest{
		Location:       weather.Location{Lat: e.Lat, Lon: e.Lon},
		UserType:       weather.ParseUserType(e.UserType),
		PredictionDays: e.PredictionDays,
	}
}

type watchlistFile struct {
	Locations []WatchEntry `yaml:"locations"`
}

// LoadDotenv loads a .env file from the working directory if present.
func LoadDotenv() error {
	return godotenv.Load()
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                getenvDefault("PORT", "8080"),
		Env:                 getenvDefault("APP_ENV", "development"),
		LogLevel:            getenvDefault("LOG_LEVEL", "info"),
		NASAPowerURL:        os.Getenv("NASA_POWER_URL"),
		OpenMeteoArchiveURL: os.Getenv("OPEN_METEO_ARCHIVE_URL"),
		LookbackYears:       getenvInt("LOOKBACK_YEARS", 3),
		GeocodingAPIKey:     os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		StoreMaxHistory:     getenvInt("STORE_MAX_HISTORY", 48),
	}

	sources, err := parseSources(getenvDefault("HISTORY_SOURCES", SourceNASAPower+","+SourceOpenMeteo))
	if err != nil {
		return nil, err
	}
	cfg.HistorySources = sources

	if cfg.LookbackYears <= 0 {
		return nil, fmt.Errorf("invalid LOOKBACK_YEARS: must be positive, got %d", cfg.LookbackYears)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "20s", &cfg.HTTPTimeout},
		{"FETCH_TIMEOUT", "60s", &cfg.FetchTimeout},
		{"WATCH_INTERVAL", "6h", &cfg.WatchInterval},
		{"STORE_MAX_AGE", "168h", &cfg.StoreMaxAge},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if path := os.Getenv("WATCHLIST_FILE"); path != "" {
		entries, err := LoadWatchlist(path)
		if err != nil {
			return nil, err
		}
		cfg.Watchlist = entries
	}

	return cfg, nil
}

// LoadWatchlist reads and validates a YAML watchlist file.
func LoadWatchlist(path string) ([]WatchEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return parseWatchlist(raw)
}

func parseWatchlist(raw []byte) ([]WatchEntry, error) {
	var file watchlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	for i := range file.Locations {
		e := &file.Locations[i]
		if e.Name == "" {
			e.Name = e.Request().Location.Key()
		}
		if e.UserType == "" {
			e.UserType = string(weather.UserFarmer)
		}
		if e.PredictionDays == 0 {
			e.PredictionDays = weather.DefaultHorizonDays
		}

		req := e.Request()
		if err := weather.ValidateLocation(req.Location); err != nil {
			return nil, fmt.Errorf("watchlist entry %q: %w", e.Name, err)
		}
		if err := weather.ValidateHorizon(req.PredictionDays); err != nil {
			return nil, fmt.Errorf("watchlist entry %q: %w", e.Name, err)
		}
	}
	return file.Locations, nil
}

func parseSources(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		switch name {
		case SourceNASAPower, SourceOpenMeteo:
		default:
			return nil, fmt.Errorf("invalid HISTORY_SOURCES: unknown source %q", name)
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("invalid HISTORY_SOURCES: no sources configured")
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
