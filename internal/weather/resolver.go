package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/flight-weather/internal/timewindow"
)

// DefaultCallTimeout bounds every external call made by the Resolver.
const DefaultCallTimeout = 10 * time.Second

var errSourceNotConfigured = errors.New("weather source not configured")

// Sources groups the collaborators a Resolver queries.
// Hourly and Geocoder are optional; without them WeatherAt goes straight to
// the 3-hourly forecast.
type Sources struct {
	Current  CurrentProvider
	Forecast ForecastProvider
	Hourly   HourlyProvider
	Geocoder Geocoder
}

// Resolver answers "what is the weather in a city now, or at a given time".
type Resolver struct {
	sources     Sources
	store       Store
	cacheTTL    time.Duration
	callTimeout time.Duration
	now         func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithCallTimeout sets the per-call timeout for external sources.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithCache serves current conditions from store while they are younger than ttl.
func WithCache(store Store, ttl time.Duration) Option {
	return func(r *Resolver) {
		if store != nil && ttl > 0 {
			r.store = store
			r.cacheTTL = ttl
		}
	}
}

// NewResolver creates a new Resolver.
func NewResolver(sources Sources, opts ...Option) *Resolver {
	r := &Resolver{
		sources:     sources,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns current conditions when at is nil, otherwise the forecast
// nearest to *at.
func (r *Resolver) Resolve(ctx context.Context, city string, at *time.Time) Result {
	if at == nil {
		return r.CurrentWeather(ctx, city)
	}
	return r.WeatherAt(ctx, city, *at)
}

// CurrentWeather returns the current conditions for city.
func (r *Resolver) CurrentWeather(ctx context.Context, city string) Result {
	if r.store != nil {
		if snap, err := r.store.GetLatest(city); err == nil && r.now().Sub(snap.Timestamp) < r.cacheTTL {
			slog.Debug("current weather served from cache", "city", city, "age", r.now().Sub(snap.Timestamp))
			return Success(snap.Sample)
		}
	}

	if r.sources.Current == nil {
		return Failure(CodeCurrentUnavailable, errSourceNotConfigured.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	reading, err := r.sources.Current.Current(callCtx, city)
	if err != nil {
		slog.Error("current weather failed", "provider", r.sources.Current.Name(), "city", city, "error", err)
		return Failure(CodeCurrentUnavailable, "error from weather API")
	}

	sample := toSample(reading)
	if r.store != nil {
		r.store.SaveSnapshot(Snapshot{City: city, Timestamp: r.now().UTC(), Sample: sample})
	}
	return Success(sample)
}

// WeatherAt returns the forecast for city nearest to at. The hourly source is
// tried first; any failure there falls back once to the 3-hourly source.
func (r *Resolver) WeatherAt(ctx context.Context, city string, at time.Time) Result {
	switch timewindow.Classify(at, r.now()) {
	case timewindow.TooPast:
		return Failure(CodeTimeInPast, "date is in the past")
	case timewindow.TooFuture:
		return Failure(CodeTimeBeyondHorizon, "date is not in range")
	}

	sample, hourlyErr := r.hourlySample(ctx, city, at)
	if hourlyErr == nil {
		return Success(sample)
	}
	slog.Warn("hourly forecast failed, falling back to 3-hourly", "city", city, "at", at, "error", hourlyErr)

	sample, approxErr := r.approxSample(ctx, city, at)
	if approxErr != nil {
		slog.Error("forecast unavailable", "city", city, "at", at, "hourly_error", hourlyErr, "approx_error", approxErr)
		return Failure(CodeForecastUnavailable, "error from weather API")
	}
	return Success(sample)
}

func (r *Resolver) hourlySample(ctx context.Context, city string, at time.Time) (Sample, error) {
	if r.sources.Hourly == nil || r.sources.Geocoder == nil {
		return Sample{}, errSourceNotConfigured
	}

	geoCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	coords, err := r.sources.Geocoder.Geocode(geoCtx, city)
	cancel()
	if err != nil {
		return Sample{}, fmt.Errorf("geocode %q: %w", city, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	readings, err := r.sources.Hourly.Hourly(callCtx, coords)
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", r.sources.Hourly.Name(), err)
	}
	return nearestSample(at, readings)
}

func (r *Resolver) approxSample(ctx context.Context, city string, at time.Time) (Sample, error) {
	if r.sources.Forecast == nil {
		return Sample{}, errSourceNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	readings, err := r.sources.Forecast.ThreeHourly(callCtx, city)
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", r.sources.Forecast.Name(), err)
	}
	return nearestSample(at, readings)
}

func nearestSample(at time.Time, readings []ProviderReading) (Sample, error) {
	times := make([]time.Time, len(readings))
	for i, rd := range readings {
		times[i] = rd.Timestamp
	}

	i, err := timewindow.NearestIndex(at, times)
	if err != nil {
		return Sample{}, err
	}
	return toSample(readings[i]), nil
}
