package weather

import (
	"context"
	"time"
)

// ProviderReading is one raw sample from a source, before truncation.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	WindSpeedMS  float64
	Condition    Condition
}

// CurrentProvider returns current conditions keyed by city name.
type CurrentProvider interface {
	Name() string
	Current(ctx context.Context, city string) (ProviderReading, error)
}

// ForecastProvider returns a 3-hourly multi-day forecast keyed by city name.
type ForecastProvider interface {
	Name() string
	ThreeHourly(ctx context.Context, city string) ([]ProviderReading, error)
}

// HourlyProvider returns an hourly forecast keyed by coordinates.
type HourlyProvider interface {
	Name() string
	Hourly(ctx context.Context, at Coordinates) ([]ProviderReading, error)
}

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// Store keeps recently observed current conditions per city.
type Store interface {
	SaveSnapshot(snapshot Snapshot)
	GetLatest(city string) (Snapshot, error)
}
