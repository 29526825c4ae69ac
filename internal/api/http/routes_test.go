package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/flight-weather/internal/flight"
	"github.com/i474232898/flight-weather/internal/flightweather"
	"github.com/i474232898/flight-weather/internal/weather"
)

type fakeWeather struct {
	res  weather.Result
	city string
	at   *time.Time
}

func (f *fakeWeather) Resolve(ctx context.Context, city string, at *time.Time) weather.Result {
	f.city, f.at = city, at
	return f.res
}

type fakeFlights struct {
	res      flightweather.Result
	err      error
	duration time.Duration
}

func (f *fakeFlights) WeatherForFlight(ctx context.Context, designator string) (flightweather.Result, error) {
	if _, err := flight.ParseDesignator(designator); err != nil {
		return flightweather.Result{}, err
	}
	return f.res, f.err
}

func (f *fakeFlights) WeatherForRoute(ctx context.Context, from, to string, d time.Duration) (flightweather.Result, error) {
	f.duration = d
	return f.res, f.err
}

func doGet(t *testing.T, wf *fakeWeather, ff *fakeFlights, target string) (int, map[string]any) {
	t.Helper()
	app := NewApp(wf, ff)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("body %q is not JSON: %v", raw, err)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	status, body := doGet(t, &fakeWeather{}, &fakeFlights{}, "/health")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("GET /health = %d %v", status, body)
	}
}

func TestWeatherEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		res        weather.Result
		wantStatus int
	}{
		{
			name:       "current conditions",
			target:     "/api/v1/weather?city=Berlin",
			res:        weather.Success(weather.Sample{Temperature: 20, Condition: weather.ConditionClear}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing city",
			target:     "/api/v1/weather",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad time",
			target:     "/api/v1/weather?city=Berlin&time=tomorrow",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "time in the past",
			target:     "/api/v1/weather?city=Berlin&time=2020-01-01T00:00:00Z",
			res:        weather.Failure(weather.CodeTimeInPast, "date is in the past"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "beyond horizon",
			target:     "/api/v1/weather?city=Berlin&time=4102444800",
			res:        weather.Failure(weather.CodeTimeBeyondHorizon, "date is not in range"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "upstream failure",
			target:     "/api/v1/weather?city=Berlin",
			res:        weather.Failure(weather.CodeCurrentUnavailable, "error from weather API"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "forecast failure",
			target:     "/api/v1/weather?city=Berlin&time=2030-01-01T00:00:00Z",
			res:        weather.Failure(weather.CodeForecastUnavailable, "error from weather API"),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := &fakeWeather{res: tt.res}
			status, body := doGet(t, wf, &fakeFlights{}, tt.target)
			if status != tt.wantStatus {
				t.Fatalf("status = %d; want %d (body %v)", status, tt.wantStatus, body)
			}
			if tt.res.Code != "" && body["code"] != string(tt.res.Code) {
				t.Errorf("code = %v; want %s", body["code"], tt.res.Code)
			}
		})
	}
}

func TestWeatherEndpointParsesTime(t *testing.T) {
	wf := &fakeWeather{res: weather.Success(weather.Sample{})}
	doGet(t, wf, &fakeFlights{}, "/api/v1/weather?city=Paris&time=1717243200")

	if wf.city != "Paris" {
		t.Errorf("city = %q; want Paris", wf.city)
	}
	if wf.at == nil || !wf.at.Equal(time.Unix(1717243200, 0)) {
		t.Errorf("at = %v; want 1717243200", wf.at)
	}
}

func TestFlightEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ok := weather.Success(weather.Sample{Temperature: 12})
		ff := &fakeFlights{res: flightweather.Result{
			Status:    weather.StatusSuccess,
			Departure: &flightweather.LegWeather{Result: ok, City: "Frankfurt", LocalTime: "2025-06-01 14:30 CEST"},
			Arrival:   &flightweather.LegWeather{Result: ok, City: "New York", LocalTime: "2025-06-01 17:05 EDT"},
		}}
		status, body := doGet(t, &fakeWeather{}, ff, "/api/v1/flights/LH400/weather")
		if status != http.StatusOK {
			t.Fatalf("status = %d; want 200", status)
		}
		dep, _ := body["departure"].(map[string]any)
		if dep["city"] != "Frankfurt" || dep["temperature"] != float64(12) || dep["localTime"] != "2025-06-01 14:30 CEST" {
			t.Errorf("departure = %v", dep)
		}
	})

	t.Run("not scheduled", func(t *testing.T) {
		ff := &fakeFlights{res: flightweather.Result{
			Status: weather.StatusError, Code: flight.CodeNotScheduled, Message: "flight not scheduled",
		}}
		status, body := doGet(t, &fakeWeather{}, ff, "/api/v1/flights/LH1234/weather")
		if status != http.StatusNotFound || body["code"] != string(flight.CodeNotScheduled) {
			t.Errorf("GET = %d %v; want 404 %s", status, body, flight.CodeNotScheduled)
		}
	})

	t.Run("malformed designator", func(t *testing.T) {
		status, _ := doGet(t, &fakeWeather{}, &fakeFlights{}, "/api/v1/flights/LUFTHANSA/weather")
		if status != http.StatusBadRequest {
			t.Errorf("status = %d; want 400", status)
		}
	})

	t.Run("unexpected error", func(t *testing.T) {
		ff := &fakeFlights{err: fmt.Errorf("lookup LH400: %w", errors.New("boom"))}
		status, body := doGet(t, &fakeWeather{}, ff, "/api/v1/flights/LH400/weather")
		if status != http.StatusBadGateway || body["error"] != true {
			t.Errorf("GET = %d %v; want 502 error body", status, body)
		}
	})
}

func TestRouteEndpoint(t *testing.T) {
	t.Run("passes the duration through", func(t *testing.T) {
		ff := &fakeFlights{res: flightweather.Result{Status: weather.StatusSuccess}}
		status, _ := doGet(t, &fakeWeather{}, ff, "/api/v1/routes/weather?from=Brussels&to=Madrid&duration=2h15m")
		if status != http.StatusOK {
			t.Fatalf("status = %d; want 200", status)
		}
		if ff.duration != 2*time.Hour+15*time.Minute {
			t.Errorf("duration = %s; want 2h15m", ff.duration)
		}
	})

	invalid := []string{
		"/api/v1/routes/weather?to=Madrid&duration=2h",
		"/api/v1/routes/weather?from=Brussels&duration=2h",
		"/api/v1/routes/weather?from=Brussels&to=Madrid",
		"/api/v1/routes/weather?from=Brussels&to=Madrid&duration=two",
		"/api/v1/routes/weather?from=Brussels&to=Madrid&duration=-1h",
	}
	for _, target := range invalid {
		t.Run(target, func(t *testing.T) {
			status, _ := doGet(t, &fakeWeather{}, &fakeFlights{}, target)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d; want 400", status)
			}
		})
	}
}
