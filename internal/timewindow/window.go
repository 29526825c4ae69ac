package timewindow

import "time"

const (
	// Grace is how far in the past a requested time may lie and still be
	// accepted. It absorbs skew between composing a request and validating it.
	Grace = 2 * time.Minute

	// Horizon is the forward limit of forecast data.
	Horizon = 5 * 24 * time.Hour
)

// Class is the outcome of classifying a requested time against now.
type Class int

const (
	Valid Class = iota
	TooPast
	TooFuture
)

func (c Class) String() string {
	switch c {
	case Valid:
		return "valid"
	case TooPast:
		return "too_past"
	case TooFuture:
		return "too_future"
	default:
		return "unknown"
	}
}

// Classify places requested inside or outside [now-Grace, now+Horizon].
// Past times are never reported as TooFuture.
func Classify(requested, now time.Time) Class {
	if !InFuture(requested, now, Grace) {
		return TooPast
	}
	if requested.After(now.Add(Horizon)) {
		return TooFuture
	}
	return Valid
}

// InFuture reports whether t is at or after now minus grace.
func InFuture(t, now time.Time, grace time.Duration) bool {
	return !t.Before(now.Add(-grace))
}
