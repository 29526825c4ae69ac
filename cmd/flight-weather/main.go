package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	httpapi "github.com/i474232898/flight-weather/internal/api/http"
	"github.com/i474232898/flight-weather/internal/config"
	"github.com/i474232898/flight-weather/internal/flight"
	"github.com/i474232898/flight-weather/internal/flightweather"
	"github.com/i474232898/flight-weather/internal/logging"
	"github.com/i474232898/flight-weather/internal/scheduler"
	"github.com/i474232898/flight-weather/internal/store"
	"github.com/i474232898/flight-weather/internal/upstream"
	"github.com/i474232898/flight-weather/internal/weather"
	"github.com/i474232898/flight-weather/internal/weather/providers"
)

const appName = "flight-weather"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(os.Stdout, cfg, appName))
	slog.Info("starting",
		"port", cfg.Port,
		"hourly_source", cfg.HourlySource,
		"cache_ttl", cfg.CacheTTL,
		"upstream_retries", cfg.UpstreamMaxRetries,
	)

	if err := run(cfg); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
	slog.Info("shut down")
}

func run(cfg *config.AppConfig) error {
	// Shared HTTP client for outbound calls.
	clientCfg := upstream.ClientConfig{
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
		Backoff: upstream.BackoffConfig{
			MaxRetries:      cfg.UpstreamMaxRetries,
			InitialInterval: upstream.DefaultBackoff.InitialInterval,
			MaxInterval:     upstream.DefaultBackoff.MaxInterval,
		},
	}

	openWeather := providers.NewOpenWeatherProvider(clientCfg, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey)
	sources := weather.Sources{
		Current:  openWeather,
		Forecast: openWeather,
	}

	var timezones flightweather.TimezoneFinder
	if cfg.GoogleAPIKey != "" {
		geo := providers.NewGoogleGeocoder(cfg.GoogleAPIKey)
		sources.Geocoder = geo
		timezones = providers.NewTimezoneFinder(geo)

		switch cfg.HourlySource {
		case config.HourlyOpenMeteo:
			sources.Hourly = providers.NewOpenMeteoProvider(clientCfg, cfg.OpenMeteoBaseURL)
		default:
			sources.Hourly = openWeather
		}
	} else {
		slog.Warn("GOOGLE_API_KEY not set; hourly forecasts disabled, using 3-hourly only")
	}

	weatherOpts := []weather.Option{weather.WithCallTimeout(cfg.UpstreamTimeout)}
	if cfg.CacheTTL > 0 {
		memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.CacheTTL)
		weatherOpts = append(weatherOpts, weather.WithCache(memStore, cfg.CacheTTL))
	}
	weatherResolver := weather.NewResolver(sources, weatherOpts...)

	schedules := flight.NewFlightStatsSource(clientCfg, cfg.FlightStatsBaseURL,
		cfg.FlightStatsAppID, cfg.FlightStatsAppKey, cfg.FlightStatsRPS, cfg.FlightStatsBurst)
	flightResolver := flight.NewResolver(schedules, flight.WithCallTimeout(cfg.UpstreamTimeout))

	var composerOpts []flightweather.Option
	if timezones != nil {
		composerOpts = append(composerOpts, flightweather.WithTimezones(timezones))
	}
	composer := flightweather.NewComposer(flightResolver, weatherResolver, composerOpts...)

	// Keep current conditions warm for frequently requested cities.
	if cfg.WarmUpEnabled() {
		sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, weatherResolver)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	app := httpapi.NewApp(weatherResolver, composer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}
