package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	HourlyOpenWeather = "openweather"
	HourlyOpenMeteo   = "openmeteo"
)

type AppConfig struct {
	Env      string
	LogLevel slog.Level
	Port     string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// HourlySource selects the per-coordinate hourly forecast: openweather or openmeteo.
	HourlySource     string
	OpenMeteoBaseURL string

	// GoogleAPIKey is used for geocoding. Without it the hourly path is skipped.
	GoogleAPIKey string

	FlightStatsBaseURL string
	FlightStatsAppID   string
	FlightStatsAppKey  string
	FlightStatsRPS     float64
	FlightStatsBurst   int

	// HTTPTimeout bounds a single outbound HTTP exchange.
	HTTPTimeout time.Duration
	// UpstreamTimeout bounds one logical call, retries included.
	UpstreamTimeout    time.Duration
	UpstreamMaxRetries int

	// CacheTTL enables the current-conditions cache when > 0.
	CacheTTL        time.Duration
	StoreMaxHistory int

	WarmCities   []string
	WarmInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	var err error
	cfg := &AppConfig{}

	cfg.Env = strings.ToLower(getenvDefault("APP_ENV", EnvDev))
	if cfg.Env != EnvDev && cfg.Env != EnvProd {
		return nil, fmt.Errorf("invalid APP_ENV %q: want %s or %s", cfg.Env, EnvDev, EnvProd)
	}
	if cfg.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")

	cfg.HourlySource = strings.ToLower(getenvDefault("HOURLY_SOURCE", HourlyOpenWeather))
	if cfg.HourlySource != HourlyOpenWeather && cfg.HourlySource != HourlyOpenMeteo {
		return nil, fmt.Errorf("invalid HOURLY_SOURCE %q", cfg.HourlySource)
	}
	cfg.OpenMeteoBaseURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	cfg.FlightStatsBaseURL = getenvDefault("FLIGHTSTATS_BASE_URL",
		"https://api.flightstats.com/flex/schedules/rest/v1/json")
	cfg.FlightStatsAppID = os.Getenv("FLIGHTSTATS_APP_ID")
	cfg.FlightStatsAppKey = os.Getenv("FLIGHTSTATS_APP_KEY")
	if cfg.FlightStatsRPS, err = getenvFloat("FLIGHTSTATS_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.FlightStatsBurst, err = getenvInt("FLIGHTSTATS_BURST", 5); err != nil {
		return nil, err
	}

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	// One attempt unless retries are asked for explicitly.
	if cfg.UpstreamMaxRetries, err = getenvInt("UPSTREAM_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.UpstreamMaxRetries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: %d is negative", cfg.UpstreamMaxRetries)
	}

	if cfg.CacheTTL, err = getenvDuration("CURRENT_CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 1); err != nil {
		return nil, err
	}
	cfg.WarmCities = splitList(os.Getenv("WARM_CITIES"))
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WarmUpEnabled reports whether the scheduler has anything to keep warm.
func (c *AppConfig) WarmUpEnabled() bool {
	return c.CacheTTL > 0 && len(c.WarmCities) > 0
}

func parseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return l, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: %s is negative", key, d)
	}
	return d, nil
}
