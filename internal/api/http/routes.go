package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/widget"
)

var validate = validator.New()

// Options bundles the session plumbing the routes need.
type Options struct {
	Sessions *store.MemoryStore
	// NewWidget builds the view state for a new browser session.
	NewWidget func() *widget.Widget
	// DeviceFallback is used when a client posts no geolocation report.
	DeviceFallback weather.DeviceLocator
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, opts Options) {
	v1 := app.Group("/api/v1")

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		locator, err := parseLocateRequest(c, opts.DeviceFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		w := opts.NewWidget()
		id := opts.Sessions.Create(w)

		// Flow failures are part of the view, not HTTP errors.
		view, _ := w.Start(c.UserContext(), locator)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":   id,
			"view": view,
		})
	})

	v1.Get("/sessions/:id", func(c *fiber.Ctx) error {
		w, err := lookupSession(c, opts.Sessions)
		if err != nil {
			return err
		}
		return c.JSON(w.View())
	})

	v1.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if _, err := lookupSession(c, opts.Sessions); err != nil {
			return err
		}
		opts.Sessions.Delete(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/sessions/:id/locate", func(c *fiber.Ctx) error {
		w, err := lookupSession(c, opts.Sessions)
		if err != nil {
			return err
		}
		locator, err := parseLocateRequest(c, opts.DeviceFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := w.Start(c.UserContext(), locator)
		if errors.Is(err, widget.ErrFlowInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(view)
	})

	v1.Post("/sessions/:id/search", func(c *fiber.Ctx) error {
		w, err := lookupSession(c, opts.Sessions)
		if err != nil {
			return err
		}

		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid search request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := w.Search(c.UserContext(), req.City)
		if errors.Is(err, widget.ErrFlowInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(view)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		coords, err := parseCoordinatesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reading, err := service.CurrentReading(c.UserContext(), coords)
		if err != nil {
			fe := weather.AsFlowError(err, weather.ErrWeatherFetchFailed)
			return fiber.NewError(fiber.StatusBadGateway, fe.Message)
		}
		return c.JSON(reading)
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		q := geocodeQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		coords, err := service.ResolveFromCityName(c.UserContext(), q.City)
		if err != nil {
			fe := weather.AsFlowError(err, weather.ErrCityLookupFailed)
			return fiber.NewError(fiber.StatusNotFound, fe.Message)
		}
		return c.JSON(coords)
	})
}

// locateRequest is the body of session creation and relocation.
type locateRequest struct {
	Geolocation *weather.PositionReport `json:"geolocation"`
}

// searchRequest is the body of a city search. An empty city is accepted and ignored.
type searchRequest struct {
	City string `json:"city" validate:"max=200"`
}

type geocodeQuery struct {
	City string `validate:"required,max=200"`
}

func parseLocateRequest(c *fiber.Ctx, fallback weather.DeviceLocator) (weather.DeviceLocator, error) {
	if len(c.Body()) == 0 {
		return fallback, nil
	}

	var req locateRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errors.New("invalid geolocation request body")
	}
	if req.Geolocation == nil {
		return fallback, nil
	}
	if err := validate.Struct(req.Geolocation); err != nil {
		return nil, err
	}
	return *req.Geolocation, nil
}

func lookupSession(c *fiber.Ctx, sessions *store.MemoryStore) (*widget.Widget, error) {
	w, err := sessions.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "unknown widget session")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load widget session")
	}
	return w, nil
}

// parseCoordinatesQuery reads and range-checks the lat/lon query parameters.
func parseCoordinatesQuery(c *fiber.Ctx) (weather.Coordinates, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return weather.Coordinates{}, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return weather.Coordinates{}, errors.New("invalid lat; expected a decimal number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return weather.Coordinates{}, errors.New("invalid lon; expected a decimal number")
	}

	coords := weather.Coordinates{Latitude: lat, Longitude: lon}
	if err := validate.Struct(coords); err != nil {
		return weather.Coordinates{}, err
	}
	return coords, nil
}
