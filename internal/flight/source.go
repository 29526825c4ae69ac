package flight

import (
	"context"
	"time"
)

// ScheduleSource fetches the scheduled flights for a designator departing on day.
type ScheduleSource interface {
	Schedules(ctx context.Context, d Designator, day time.Time) (ScheduleResponse, error)
}

// ScheduleResponse mirrors the upstream payload. ScheduledFlights is nil when
// the upstream omitted the list (unrecognized designator) and empty when the
// designator is valid but nothing departs that day.
type ScheduleResponse struct {
	ScheduledFlights []ScheduledFlight `json:"scheduledFlights"`
	Appendix         Appendix          `json:"appendix"`
}

// ScheduledFlight is one entry of scheduledFlights. Times are airport local
// without an offset.
type ScheduledFlight struct {
	CarrierFsCode          string `json:"carrierFsCode"`
	FlightNumber           string `json:"flightNumber"`
	DepartureAirportFsCode string `json:"departureAirportFsCode"`
	ArrivalAirportFsCode   string `json:"arrivalAirportFsCode"`
	DepartureTime          string `json:"departureTime"` // airport local, no offset
	ArrivalTime            string `json:"arrivalTime"`
}

// Appendix carries the reference data the flights point into.
type Appendix struct {
	Airports []Airport `json:"airports"`
}

// Airport is an appendix entry keyed by its FlightStats (fs) code.
type Airport struct {
	Fs                 string `json:"fs"`
	Iata               string `json:"iata"`
	Name               string `json:"name"`
	City               string `json:"city"`
	CountryCode        string `json:"countryCode"`
	TimeZoneRegionName string `json:"timeZoneRegionName"`
}

// Airport returns the appendix entry for an FS code.
func (r ScheduleResponse) Airport(fs string) (Airport, bool) {
	for _, a := range r.Appendix.Airports {
		if a.Fs == fs {
			return a, true
		}
	}
	return Airport{}, false
}
