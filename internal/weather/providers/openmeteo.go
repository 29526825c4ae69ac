package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/flight-weather/internal/upstream"
	"github.com/i474232898/flight-weather/internal/weather"
)

// DefaultOpenMeteoBaseURL is the public forecast endpoint, path included.
const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider is a keyless hourly source keyed by coordinates.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates the provider; an empty baseURL selects the public forecast endpoint.
func NewOpenMeteoProvider(cfg upstream.ClientConfig, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: upstream.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Hourly implements weather.HourlyProvider. Wind is requested in m/s so the
// shared conversion applies.
func (p *OpenMeteoProvider) Hourly(ctx context.Context, at weather.Coordinates) ([]weather.ProviderReading, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", at.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", at.Longitude))
		values.Set("hourly", "temperature_2m,weathercode,windspeed_10m")
		values.Set("windspeed_unit", "ms")
		values.Set("timezone", "UTC")
		values.Set("forecast_days", "6")
		return upstream.GetJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()))
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Time        []string  `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
			WeatherCode []int     `json:"weathercode"`
			WindSpeed   []float64 `json:"windspeed_10m"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.WeatherCode) != n || len(h.WindSpeed) != n {
		return nil, fmt.Errorf("openmeteo hourly arrays differ in length: %w", errMalformedPayload)
	}

	readings := make([]weather.ProviderReading, 0, n)
	for i := range h.Time {
		ts, err := time.ParseInLocation("2006-01-02T15:04", h.Time[i], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("openmeteo time %q: %w", h.Time[i], errMalformedPayload)
		}
		readings = append(readings, weather.ProviderReading{
			ProviderName: p.name,
			Timestamp:    ts,
			TemperatureC: h.Temperature[i],
			WindSpeedMS:  h.WindSpeed[i],
			Condition:    mapOpenMeteoCondition(h.WeatherCode[i]),
		})
	}
	return readings, nil
}

// mapOpenMeteoCondition maps WMO weather codes onto OpenWeatherMap's main groups.
func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionClouds
	case code == 45 || code == 48:
		return weather.ConditionMist
	case code >= 51 && code <= 57:
		return weather.ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionThunderstorm
	default:
		return weather.ConditionClouds
	}
}

var _ weather.HourlyProvider = (*OpenMeteoProvider)(nil)
