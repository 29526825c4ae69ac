package timewindow

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned when there is nothing to choose from.
var ErrInvalidInput = errors.New("timewindow: no candidate instants")

// NearestIndex returns the index of the candidate closest to target.
// On a tie the earliest index wins.
func NearestIndex(target time.Time, candidates []time.Time) (int, error) {
	if len(candidates) == 0 {
		return -1, ErrInvalidInput
	}

	best := 0
	bestDiff := absDuration(candidates[0].Sub(target))
	for i := 1; i < len(candidates); i++ {
		d := absDuration(candidates[i].Sub(target))
		if d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best, nil
}

// Nearest returns the candidate closest to target.
func Nearest(target time.Time, candidates []time.Time) (time.Time, error) {
	i, err := NearestIndex(target, candidates)
	if err != nil {
		return time.Time{}, err
	}
	return candidates[i], nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
