package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/flight-weather/internal/weather"
)

var storeNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	s := NewMemoryStore(maxHistory, maxAge)
	s.now = func() time.Time { return storeNow }
	return s
}

func TestMemoryStoreLatest(t *testing.T) {
	s := newTestStore(3, 0)

	if _, err := s.GetLatest("Berlin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLatest() err = %v; want ErrNotFound", err)
	}

	s.SaveSnapshot(weather.Snapshot{City: "Berlin", Timestamp: storeNow.Add(-2 * time.Minute), Sample: weather.Sample{Temperature: 10}})
	s.SaveSnapshot(weather.Snapshot{City: "Berlin", Timestamp: storeNow, Sample: weather.Sample{Temperature: 12}})

	got, err := s.GetLatest(" berlin ")
	if err != nil {
		t.Fatalf("GetLatest() err = %v; want nil", err)
	}
	if got.Sample.Temperature != 12 {
		t.Errorf("GetLatest() temperature = %d; want 12", got.Sample.Temperature)
	}
}

func TestMemoryStoreRetention(t *testing.T) {
	t.Run("by count", func(t *testing.T) {
		s := newTestStore(2, 0)
		for i := 0; i < 5; i++ {
			s.SaveSnapshot(weather.Snapshot{City: "Oslo", Timestamp: storeNow.Add(time.Duration(i) * time.Minute)})
		}
		if n := len(s.data["oslo"]); n != 2 {
			t.Errorf("history length = %d; want 2", n)
		}
	})

	t.Run("by age", func(t *testing.T) {
		s := newTestStore(10, time.Hour)
		s.SaveSnapshot(weather.Snapshot{City: "Oslo", Timestamp: storeNow.Add(-3 * time.Hour)})
		s.SaveSnapshot(weather.Snapshot{City: "Oslo", Timestamp: storeNow.Add(-10 * time.Minute)})
		if n := len(s.data["oslo"]); n != 1 {
			t.Errorf("history length = %d; want 1", n)
		}
	})

	t.Run("stale-only write leaves nothing", func(t *testing.T) {
		s := newTestStore(10, time.Hour)
		s.SaveSnapshot(weather.Snapshot{City: "Oslo", Timestamp: storeNow.Add(-2 * time.Hour)})
		if s.Len() != 0 {
			t.Errorf("Len() = %d; want 0", s.Len())
		}
	})
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore(1, 0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SaveSnapshot(weather.Snapshot{City: "Rome", Timestamp: time.Now(), Sample: weather.Sample{Temperature: i}})
			_, _ = s.GetLatest("Rome")
		}(i)
	}
	wg.Wait()
	if s.Len() != 1 {
		t.Errorf("Len() = %d; want 1", s.Len())
	}
}
