package weather

import (
	"time"
)

// Condition is the upstream's main weather group, e.g. "Clear" or "Rain".
// Values are passed through as reported.
type Condition string

const (
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionMist         Condition = "Mist"
)

// Sample is the normalized weather at one point in time.
type Sample struct {
	Temperature  int       `json:"temperature"` // °C, truncated
	Condition    Condition `json:"condition"`
	WindSpeedKmh int       `json:"windSpeedKmh"` // truncated
}

// Coordinates of a geocoded place.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Snapshot is a sample observed for a city at a point in time, as kept by a Store.
type Snapshot struct {
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"` // always UTC
	Sample    Sample    `json:"sample"`
}

// Status tags a Result as success or failure.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Code is a stable failure code. Consumers branch on it.
type Code string

const (
	CodeCurrentUnavailable  Code = "ERR-WT-CITY-01"
	CodeTimeInPast          Code = "ERR-WT-CITYTIME-01"
	CodeTimeBeyondHorizon   Code = "ERR-WT-CITYTIME-02"
	CodeForecastUnavailable Code = "ERR-WT-CITYTIME-03"
)

// Result is either a Sample or a failure code with a diagnostic message.
// The embedded sample fields are flattened into the JSON object on success.
type Result struct {
	Status  Status `json:"status"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	*Sample
}

// Success wraps s in a successful Result.
func Success(s Sample) Result {
	return Result{Status: StatusSuccess, Sample: &s}
}

// Failure builds a failed Result.
func Failure(code Code, message string) Result {
	return Result{Status: StatusError, Code: code, Message: message}
}

// OK reports whether r carries a sample.
func (r Result) OK() bool {
	return r.Status == StatusSuccess && r.Sample != nil
}
