package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/flight-weather/internal/weather"
)

const (
	defaultInterval = 15 * time.Minute
	fetchTimeout    = 30 * time.Second
)

// CurrentFetcher is satisfied by *weather.Resolver.
type CurrentFetcher interface {
	CurrentWeather(ctx context.Context, city string) weather.Result
}

// Scheduler periodically refreshes current weather for a set of cities so the
// cache stays warm.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   CurrentFetcher
	cities    []string
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, fetcher CurrentFetcher) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		cities:    cities,
		interval:  interval,
	}
}

// Start schedules the warm-up job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		slog.Info("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.warm)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// warm fetches every city concurrently and waits for all of them.
func (s *Scheduler) warm() {
	slog.Debug("scheduler: warming current weather", "cities", len(s.cities))

	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()

			if res := s.fetcher.CurrentWeather(ctx, city); !res.OK() {
				slog.Warn("scheduler: warm-up failed", "city", city, "code", res.Code, "message", res.Message)
			}
		}()
	}
	wg.Wait()
	slog.Debug("scheduler: warm-up completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
