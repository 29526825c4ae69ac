// Package flightweather combines flight schedules with weather forecasts to
// report conditions at both ends of a flight.
package flightweather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/flight-weather/internal/flight"
	"github.com/i474232898/flight-weather/internal/weather"
)

const (
	// RouteDepartureDelay is how far ahead a route query assumes departure.
	RouteDepartureDelay = 30 * time.Minute

	timezoneTimeout = 10 * time.Second
)

// ErrInvalidRoute is returned for route queries missing a city or a positive duration.
var ErrInvalidRoute = errors.New("flightweather: invalid route")

// WeatherResolver is satisfied by *weather.Resolver.
type WeatherResolver interface {
	WeatherAt(ctx context.Context, city string, at time.Time) weather.Result
}

// ScheduleResolver is satisfied by *flight.Resolver.
type ScheduleResolver interface {
	Lookup(ctx context.Context, d flight.Designator) (flight.Schedule, error)
}

// TimezoneFinder maps a city to an IANA zone name.
type TimezoneFinder interface {
	TimezoneFor(ctx context.Context, city string) (string, error)
}

// LegWeather is the weather at one end of a flight together with where and
// when that end is.
type LegWeather struct {
	weather.Result
	City      string    `json:"city"`
	Time      time.Time `json:"time"`
	LocalTime string    `json:"localTime"`
	TimeZone  string    `json:"timeZone"`
}

// Result holds both legs, or a top-level failure when the schedule could not
// be resolved. Each leg carries its own weather status.
type Result struct {
	Status    weather.Status `json:"status"`
	Code      flight.Code    `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
	Departure *LegWeather    `json:"departure,omitempty"`
	Arrival   *LegWeather    `json:"arrival,omitempty"`
}

// OK reports whether both legs resolved weather successfully.
func (r Result) OK() bool {
	return r.Status == weather.StatusSuccess &&
		r.Departure != nil && r.Departure.OK() &&
		r.Arrival != nil && r.Arrival.OK()
}

// Composer answers flight weather and route weather queries.
type Composer struct {
	schedules ScheduleResolver
	weather   WeatherResolver
	timezones TimezoneFinder
	now       func() time.Time
}

// Option customizes a Composer.
type Option func(*Composer)

// WithClock replaces time.Now for route departure times.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithTimezones enables local times for route queries. Without it route legs
// are reported in UTC.
func WithTimezones(tz TimezoneFinder) Option {
	return func(c *Composer) { c.timezones = tz }
}

// NewComposer creates a Composer over a schedule resolver and a weather resolver.
func NewComposer(schedules ScheduleResolver, w WeatherResolver, opts ...Option) *Composer {
	c := &Composer{
		schedules: schedules,
		weather:   w,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WeatherForFlight resolves the flight's schedule and then the weather at
// departure and arrival. A malformed designator is returned as an error; a
// schedule failure is returned as a failed Result and no weather is fetched.
func (c *Composer) WeatherForFlight(ctx context.Context, designator string) (Result, error) {
	d, err := flight.ParseDesignator(designator)
	if err != nil {
		return Result{}, err
	}

	sched, err := c.schedules.Lookup(ctx, d)
	if err != nil {
		var lerr *flight.LookupError
		if errors.As(err, &lerr) {
			return Result{Status: weather.StatusError, Code: lerr.Code, Message: lerr.Message}, nil
		}
		return Result{}, fmt.Errorf("lookup %s: %w", d, err)
	}

	dep, arr := c.bothLegs(ctx,
		func(ctx context.Context) LegWeather { return c.legWeather(ctx, sched.Departure) },
		func(ctx context.Context) LegWeather { return c.legWeather(ctx, sched.Arrival) },
	)
	return Result{Status: weather.StatusSuccess, Departure: &dep, Arrival: &arr}, nil
}

// WeatherForRoute reports weather for a flight between two cities departing
// shortly and lasting duration.
func (c *Composer) WeatherForRoute(ctx context.Context, from, to string, duration time.Duration) (Result, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" || duration <= 0 {
		return Result{}, fmt.Errorf("%w: from=%q to=%q duration=%s", ErrInvalidRoute, from, to, duration)
	}

	departAt := c.now().Add(RouteDepartureDelay)
	arriveAt := departAt.Add(duration)

	dep, arr := c.bothLegs(ctx,
		func(ctx context.Context) LegWeather { return c.cityWeather(ctx, from, departAt) },
		func(ctx context.Context) LegWeather { return c.cityWeather(ctx, to, arriveAt) },
	)
	return Result{Status: weather.StatusSuccess, Departure: &dep, Arrival: &arr}, nil
}

// bothLegs runs the two lookups concurrently; each result is kept in its own
// variable so completion order does not matter.
func (c *Composer) bothLegs(ctx context.Context, departure, arrival func(context.Context) LegWeather) (LegWeather, LegWeather) {
	var dep, arr LegWeather

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dep = departure(gctx)
		return nil
	})
	g.Go(func() error {
		arr = arrival(gctx)
		return nil
	})
	_ = g.Wait()

	return dep, arr
}

func (c *Composer) legWeather(ctx context.Context, leg flight.Leg) LegWeather {
	local, err := leg.LocalTime()
	if err != nil {
		slog.Warn("leg local time unavailable, using UTC", "city", leg.City, "zone", leg.TimeZone, "error", err)
		local = leg.Time.UTC().Format(flight.LocalTimeLayout)
	}

	return LegWeather{
		Result:    c.weather.WeatherAt(ctx, leg.City, leg.Time),
		City:      leg.City,
		Time:      leg.Time,
		LocalTime: local,
		TimeZone:  leg.TimeZone,
	}
}

func (c *Composer) cityWeather(ctx context.Context, city string, at time.Time) LegWeather {
	zone := "UTC"
	if c.timezones != nil {
		tzCtx, cancel := context.WithTimeout(ctx, timezoneTimeout)
		z, err := c.timezones.TimezoneFor(tzCtx, city)
		cancel()
		if err != nil {
			slog.Warn("timezone lookup failed, using UTC", "city", city, "error", err)
		} else {
			zone = z
		}
	}

	return c.legWeather(ctx, flight.Leg{City: city, Time: at, TimeZone: zone})
}
