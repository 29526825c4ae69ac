package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/bradfitz/latlong"

	"github.com/i474232898/flight-weather/internal/weather"
)

// TimezoneFinder maps a city to its IANA zone by geocoding it and looking the
// coordinates up in an offline zone table.
type TimezoneFinder struct {
	geocoder weather.Geocoder
	lookup   func(lat, lng float64) string
}

// NewTimezoneFinder creates a finder that geocodes cities with g.
func NewTimezoneFinder(g weather.Geocoder) *TimezoneFinder {
	return &TimezoneFinder{geocoder: g, lookup: latlong.LookupZoneName}
}

// TimezoneFor returns the IANA zone name of the first match for city.
func (f *TimezoneFinder) TimezoneFor(ctx context.Context, city string) (string, error) {
	coords, err := f.geocoder.Geocode(ctx, city)
	if err != nil {
		return "", err
	}

	zone := f.lookup(coords.Latitude, coords.Longitude)
	if zone == "" {
		return "", fmt.Errorf("no timezone at %f,%f", coords.Latitude, coords.Longitude)
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return "", fmt.Errorf("timezone %q: %w", zone, err)
	}
	return zone, nil
}
