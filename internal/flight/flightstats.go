package flight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/flight-weather/internal/upstream"
)

// DefaultFlightStatsBaseURL is the schedules API root; paths are appended per request.
const DefaultFlightStatsBaseURL = "https://api.flightstats.com/flex/schedules/rest/v1/json"

// FlightStatsSource queries the FlightStats schedules API. Calls are rate
// limited to stay inside the account quota.
type FlightStatsSource struct {
	name    string
	baseURL string
	appID   string
	appKey  string
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewFlightStatsSource creates a source allowing rps requests per second with
// the given burst. A non-positive rps disables limiting.
func NewFlightStatsSource(cfg upstream.ClientConfig, baseURL, appID, appKey string, rps float64, burst int) *FlightStatsSource {
	if baseURL == "" {
		baseURL = DefaultFlightStatsBaseURL
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &FlightStatsSource{
		name:    "flightstats",
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		httpCfg: cfg,
		circuit: upstream.NewBreaker("flightstats"),
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (s *FlightStatsSource) Name() string {
	return s.name
}

// Schedules implements ScheduleSource.
func (s *FlightStatsSource) Schedules(ctx context.Context, d Designator, day time.Time) (ScheduleResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return ScheduleResponse{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appId", s.appID)
		values.Set("appKey", s.appKey)

		u := fmt.Sprintf("%s/flight/%s/%s/departing/%s?%s",
			s.baseURL, url.PathEscape(d.Carrier), url.PathEscape(d.Number), day.Format("2006/01/02"), values.Encode())
		return upstream.GetJSON(ctx, u)
	}

	resp, err := upstream.Do(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return ScheduleResponse{}, err
	}
	defer resp.Body.Close()

	var payload ScheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ScheduleResponse{}, fmt.Errorf("decode flightstats schedule: %w", err)
	}
	return payload, nil
}

var _ ScheduleSource = (*FlightStatsSource)(nil)
