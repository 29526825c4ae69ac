package flight

import (
	"fmt"
	"time"
)

// Designator identifies a flight by carrier code and number, e.g. LH 1234.
type Designator struct {
	Carrier string `json:"carrier"`
	Number  string `json:"number"`
}

func (d Designator) String() string {
	return d.Carrier + d.Number
}

// Leg is one end of a scheduled flight.
type Leg struct {
	City     string    `json:"city"`
	Airport  string    `json:"airport"`
	Time     time.Time `json:"time"`
	TimeZone string    `json:"timeZone"` // IANA name
}

// LocalTime formats the leg's time in its own timezone.
func (l Leg) LocalTime() (string, error) {
	return FormatLocalTime(l.Time, l.TimeZone)
}

// Schedule is the departure and arrival of one flight.
type Schedule struct {
	Designator Designator `json:"designator"`
	Departure  Leg        `json:"departure"`
	Arrival    Leg        `json:"arrival"`
}

// Code is a stable lookup failure code.
type Code string

const (
	CodeUnknownToday    Code = "ERR-FL-01"
	CodeUnknownTomorrow Code = "ERR-FL-02"
	CodeNotScheduled    Code = "ERR-FL-03"
)

// LookupError is the failure outcome of a schedule lookup.
type LookupError struct {
	Code    Code
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// LocalTimeLayout renders "2025-06-01 14:05 CEST".
const LocalTimeLayout = "2006-01-02 15:04 MST"

// FormatLocalTime renders t in the named IANA zone.
func FormatLocalTime(t time.Time, zone string) (string, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", fmt.Errorf("timezone %q: %w", zone, err)
	}
	return t.In(loc).Format(LocalTimeLayout), nil
}
