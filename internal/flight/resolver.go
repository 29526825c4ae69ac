package flight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/flight-weather/internal/timewindow"
)

// DepartureGrace is how long after its scheduled departure today's flight is
// still picked over tomorrow's. It currently equals the forecast window's
// grace but is tuned separately.
const DepartureGrace = timewindow.Grace

// DefaultCallTimeout bounds each schedule request.
const DefaultCallTimeout = 10 * time.Second

var localTimeLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// Resolver finds the next scheduled departure of a flight, today or tomorrow.
type Resolver struct {
	source      ScheduleSource
	now         func() time.Time
	callTimeout time.Duration
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithCallTimeout sets the timeout of each schedule request; non-positive values are ignored.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// NewResolver creates a Resolver reading schedules from source.
func NewResolver(source ScheduleSource, opts ...Option) *Resolver {
	r := &Resolver{
		source:      source,
		now:         time.Now,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type lookupState int

const (
	checkToday lookupState = iota
	checkTomorrow
	resolved
	failed
)

// Lookup returns the schedule of d's first flight that has not yet departed,
// searching today and then tomorrow. Failures are *LookupError.
func (r *Resolver) Lookup(ctx context.Context, d Designator) (Schedule, error) {
	now := r.now()

	var (
		state   = checkToday
		picked  ScheduleResponse
		stage   Code
		failure *LookupError
	)

	for state != resolved && state != failed {
		switch state {
		case checkToday:
			stage = CodeUnknownToday
			today, err := r.fetch(ctx, d, now)
			switch {
			case err != nil:
				failure = &LookupError{Code: CodeUnknownToday, Message: "flight schedule request failed", Err: err}
				state = failed
			case today.ScheduledFlights == nil:
				failure = &LookupError{Code: CodeUnknownToday, Message: "wrong flight info"}
				state = failed
			case len(today.ScheduledFlights) == 0:
				state = checkTomorrow
			default:
				upcoming, err := departsAfter(today, now)
				if err != nil {
					failure = &LookupError{Code: CodeUnknownToday, Message: "unusable schedule", Err: err}
					state = failed
				} else if upcoming {
					picked = today
					state = resolved
				} else {
					slog.Debug("today's flight already departed, checking tomorrow", "flight", d.String())
					state = checkTomorrow
				}
			}

		case checkTomorrow:
			stage = CodeUnknownTomorrow
			tomorrow, err := r.fetch(ctx, d, now.AddDate(0, 0, 1))
			switch {
			case err != nil:
				failure = &LookupError{Code: CodeUnknownTomorrow, Message: "flight schedule request failed", Err: err}
				state = failed
			case tomorrow.ScheduledFlights == nil:
				failure = &LookupError{Code: CodeUnknownTomorrow, Message: "wrong flight info"}
				state = failed
			case len(tomorrow.ScheduledFlights) == 0:
				failure = &LookupError{Code: CodeNotScheduled, Message: "no flights scheduled today or tomorrow for this flight number"}
				state = failed
			default:
				picked = tomorrow
				state = resolved
			}
		}
	}

	if state == failed {
		slog.Info("flight lookup failed", "flight", d.String(), "code", failure.Code, "error", failure.Err)
		return Schedule{}, failure
	}

	sched, err := buildSchedule(d, picked)
	if err != nil {
		return Schedule{}, &LookupError{Code: stage, Message: "unusable schedule", Err: err}
	}
	return sched, nil
}

func (r *Resolver) fetch(ctx context.Context, d Designator, day time.Time) (ScheduleResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.source.Schedules(callCtx, d, day)
}

// departsAfter reports whether the first scheduled flight leaves at or after
// now minus DepartureGrace, in its departure airport's zone.
func departsAfter(resp ScheduleResponse, now time.Time) (bool, error) {
	f := resp.ScheduledFlights[0]
	airport, ok := resp.Airport(f.DepartureAirportFsCode)
	if !ok {
		return false, fmt.Errorf("departure airport %q missing from appendix", f.DepartureAirportFsCode)
	}
	dep, err := legFor(airport, f.DepartureTime)
	if err != nil {
		return false, err
	}
	return timewindow.InFuture(dep.Time, now, DepartureGrace), nil
}

// buildSchedule always takes the first scheduled entry of the day.
func buildSchedule(d Designator, resp ScheduleResponse) (Schedule, error) {
	if len(resp.ScheduledFlights) == 0 {
		return Schedule{}, errors.New("no scheduled flights")
	}
	f := resp.ScheduledFlights[0]

	depAirport, ok := resp.Airport(f.DepartureAirportFsCode)
	if !ok {
		return Schedule{}, fmt.Errorf("departure airport %q missing from appendix", f.DepartureAirportFsCode)
	}
	arrAirport, ok := resp.Airport(f.ArrivalAirportFsCode)
	if !ok {
		return Schedule{}, fmt.Errorf("arrival airport %q missing from appendix", f.ArrivalAirportFsCode)
	}

	dep, err := legFor(depAirport, f.DepartureTime)
	if err != nil {
		return Schedule{}, err
	}
	arr, err := legFor(arrAirport, f.ArrivalTime)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Designator: d, Departure: dep, Arrival: arr}, nil
}

func legFor(a Airport, localTime string) (Leg, error) {
	loc, err := time.LoadLocation(a.TimeZoneRegionName)
	if err != nil {
		return Leg{}, fmt.Errorf("airport %s timezone %q: %w", a.Fs, a.TimeZoneRegionName, err)
	}

	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, localTime, loc); err == nil {
			return Leg{City: a.City, Airport: a.Fs, Time: t, TimeZone: a.TimeZoneRegionName}, nil
		}
	}
	return Leg{}, fmt.Errorf("airport %s: unparseable local time %q", a.Fs, localTime)
}
