package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/flight-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot is held for a city.
	ErrNotFound = errors.New("no weather data for city")
)

// MemoryStore is a concurrency-safe in-memory cache of current-weather
// snapshots, keyed by city.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city name, value: snapshots oldest first
	data map[string][]weather.Snapshot

	maxHistory int           // max snapshots kept per city
	maxAge     time.Duration // snapshots older than this are dropped on write
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0 a single snapshot per city is kept; maxAge <= 0 disables
// age-based eviction.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &MemoryStore{
		data:       make(map[string][]weather.Snapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// SaveSnapshot appends a snapshot for its city and enforces retention.
func (s *MemoryStore) SaveSnapshot(snap weather.Snapshot) {
	key := cityKey(snap.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], snap)

	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for i < len(history) && history[i].Timestamp.Before(cutoff) {
			i++
		}
		history = history[i:]
	}

	if len(history) == 0 {
		delete(s.data, key)
		return
	}
	s.data[key] = history
}

// GetLatest returns the most recent snapshot for city.
func (s *MemoryStore) GetLatest(city string) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[cityKey(city)]
	if len(history) == 0 {
		return weather.Snapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// Len returns the number of cities currently cached.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
