package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/flight-weather/internal/upstream"
	"github.com/i474232898/flight-weather/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

	currentPath  = "/data/2.5/weather"
	forecastPath = "/data/2.5/forecast"
	onecallPath  = "/data/3.0/onecall"

	// dt_txt in the 3-hourly forecast is UTC.
	forecastTimeLayout = "2006-01-02 15:04:05"
)

var errMalformedPayload = errors.New("malformed payload")

// OpenWeatherProvider serves current conditions, the 3-hourly forecast and
// the hourly One Call forecast from OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg upstream.ClientConfig

	// one breaker per endpoint so a failing hourly API does not block the fallback
	currentCB  *gobreaker.CircuitBreaker
	forecastCB *gobreaker.CircuitBreaker
	hourlyCB   *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates the provider; an empty baseURL selects the public API.
func NewOpenWeatherProvider(cfg upstream.ClientConfig, baseURL, apiKey string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpCfg:    cfg,
		currentCB:  upstream.NewBreaker("openweather-current"),
		forecastCB: upstream.NewBreaker("openweather-forecast"),
		hourlyCB:   upstream.NewBreaker("openweather-onecall"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	Main string `json:"main"`
}

// Current implements weather.CurrentProvider.
func (p *OpenWeatherProvider) Current(ctx context.Context, city string) (weather.ProviderReading, error) {
	values := url.Values{}
	values.Set("q", city)

	var payload struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []owmCondition `json:"weather"`
	}
	if err := p.getJSON(ctx, p.currentCB, currentPath, values, &payload); err != nil {
		return weather.ProviderReading{}, err
	}
	if payload.Main == nil || len(payload.Weather) == 0 {
		return weather.ProviderReading{}, fmt.Errorf("current weather for %q: %w", city, errMalformedPayload)
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    time.Unix(payload.Dt, 0).UTC(),
		TemperatureC: payload.Main.Temp,
		WindSpeedMS:  payload.Wind.Speed,
		Condition:    weather.Condition(payload.Weather[0].Main),
	}, nil
}

// ThreeHourly implements weather.ForecastProvider. The whole multi-day list
// is returned; no day filtering is applied.
func (p *OpenWeatherProvider) ThreeHourly(ctx context.Context, city string) ([]weather.ProviderReading, error) {
	values := url.Values{}
	values.Set("q", city)

	var payload struct {
		List []struct {
			DtTxt string `json:"dt_txt"`
			Main  struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}
	if err := p.getJSON(ctx, p.forecastCB, forecastPath, values, &payload); err != nil {
		return nil, err
	}

	readings := make([]weather.ProviderReading, 0, len(payload.List))
	for _, item := range payload.List {
		ts, err := time.ParseInLocation(forecastTimeLayout, item.DtTxt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("forecast dt_txt %q: %w", item.DtTxt, errMalformedPayload)
		}
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("forecast entry %s has no weather: %w", item.DtTxt, errMalformedPayload)
		}
		readings = append(readings, weather.ProviderReading{
			ProviderName: p.name,
			Timestamp:    ts,
			TemperatureC: item.Main.Temp,
			WindSpeedMS:  item.Wind.Speed,
			Condition:    weather.Condition(item.Weather[0].Main),
		})
	}
	return readings, nil
}

// Hourly implements weather.HourlyProvider.
func (p *OpenWeatherProvider) Hourly(ctx context.Context, at weather.Coordinates) ([]weather.ProviderReading, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", at.Latitude))
	values.Set("lon", fmt.Sprintf("%f", at.Longitude))
	values.Set("exclude", "current,minutely,daily,alerts")

	var payload struct {
		Hourly []struct {
			Dt        int64          `json:"dt"`
			Temp      float64        `json:"temp"`
			WindSpeed float64        `json:"wind_speed"`
			Weather   []owmCondition `json:"weather"`
		} `json:"hourly"`
	}
	if err := p.getJSON(ctx, p.hourlyCB, onecallPath, values, &payload); err != nil {
		return nil, err
	}

	readings := make([]weather.ProviderReading, 0, len(payload.Hourly))
	for _, h := range payload.Hourly {
		if len(h.Weather) == 0 {
			return nil, fmt.Errorf("hourly entry %d has no weather: %w", h.Dt, errMalformedPayload)
		}
		readings = append(readings, weather.ProviderReading{
			ProviderName: p.name,
			Timestamp:    time.Unix(h.Dt, 0).UTC(),
			TemperatureC: h.Temp,
			WindSpeedMS:  h.WindSpeed,
			Condition:    weather.Condition(h.Weather[0].Main),
		})
	}
	return readings, nil
}

func (p *OpenWeatherProvider) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)
		q.Set("units", "metric")
		return upstream.GetJSON(ctx, p.baseURL+path+"?"+q.Encode())
	}

	resp, err := upstream.Do(ctx, p.httpCfg, cb, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

var (
	_ weather.CurrentProvider  = (*OpenWeatherProvider)(nil)
	_ weather.ForecastProvider = (*OpenWeatherProvider)(nil)
	_ weather.HourlyProvider   = (*OpenWeatherProvider)(nil)
)
