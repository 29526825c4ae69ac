package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/flight-weather/internal/weather"
)

var errEmptyAddress = errors.New("empty address")

// GoogleGeocoder resolves city names through the Google Geocoding API.
type GoogleGeocoder struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder configures the geocoder package with apiKey. The key is
// process-wide, so this is meant to be called once at startup.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{lookup: geocoder.Geocoding}
}

// Geocode implements weather.Geocoder. The underlying client is not context
// aware, so the call is abandoned (not cancelled) when ctx ends.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (weather.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return weather.Coordinates{}, errEmptyAddress
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := g.lookup(geocoder.Address{City: address})
		done <- result{loc, err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return weather.Coordinates{}, fmt.Errorf("google geocoding: %w", res.err)
		}
		return weather.Coordinates{Latitude: res.loc.Latitude, Longitude: res.loc.Longitude}, nil
	}
}

var _ weather.Geocoder = (*GoogleGeocoder)(nil)
