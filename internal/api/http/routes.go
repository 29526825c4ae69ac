package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/flight-weather/internal/flight"
	"github.com/i474232898/flight-weather/internal/flightweather"
	"github.com/i474232898/flight-weather/internal/weather"
)

var validate = validator.New()

// WeatherResolver is satisfied by *weather.Resolver.
type WeatherResolver interface {
	Resolve(ctx context.Context, city string, at *time.Time) weather.Result
}

// FlightWeather is satisfied by *flightweather.Composer.
type FlightWeather interface {
	WeatherForFlight(ctx context.Context, designator string) (flightweather.Result, error)
	WeatherForRoute(ctx context.Context, from, to string, duration time.Duration) (flightweather.Result, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, weatherSvc WeatherResolver, flights FlightWeather) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var req weatherQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res := weatherSvc.Resolve(c.UserContext(), req.City, req.At)
		return c.Status(weatherStatus(res)).JSON(res)
	})

	v1.Get("/flights/:designator/weather", func(c *fiber.Ctx) error {
		res, err := flights.WeatherForFlight(c.UserContext(), c.Params("designator"))
		if err != nil {
			if errors.Is(err, flight.ErrParse) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to resolve flight schedule")
		}

		status := fiber.StatusOK
		if res.Status != weather.StatusSuccess {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(res)
	})

	v1.Get("/routes/weather", func(c *fiber.Ctx) error {
		var req routeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := flights.WeatherForRoute(c.UserContext(), req.From, req.To, req.Duration)
		if err != nil {
			if errors.Is(err, flightweather.ErrInvalidRoute) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve route weather")
		}
		return c.JSON(res)
	})
}

// weatherStatus maps a weather result to its HTTP status.
func weatherStatus(res weather.Result) int {
	switch res.Code {
	case "":
		return fiber.StatusOK
	case weather.CodeTimeInPast, weather.CodeTimeBeyondHorizon:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadGateway
	}
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	City string `validate:"required"`
	At   *time.Time
}

func (q *weatherQuery) bind(c *fiber.Ctx) error {
	q.City = strings.TrimSpace(c.Query("city"))
	if err := validate.Struct(q); err != nil {
		return err
	}

	if s := c.Query("time"); s != "" {
		at, err := parseTime(s)
		if err != nil {
			return err
		}
		q.At = &at
	}
	return nil
}

// routeQuery holds query parameters for the city-pair endpoint.
type routeQuery struct {
	From     string        `validate:"required"`
	To       string        `validate:"required"`
	Duration time.Duration `validate:"gt=0"`
}

func (q *routeQuery) bind(c *fiber.Ctx) error {
	q.From = strings.TrimSpace(c.Query("from"))
	q.To = strings.TrimSpace(c.Query("to"))

	s := c.Query("duration")
	if s == "" {
		return errors.New("duration query parameter is required")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("invalid duration; use a Go duration such as 2h30m")
	}
	q.Duration = d

	return validate.Struct(q)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
