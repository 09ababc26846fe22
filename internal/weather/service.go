package weather

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("weather-lookup/weather")

// Service resolves locations and fetches current conditions through a Provider.
type Service struct {
	provider Provider
}

// NewService creates a new Service.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// ResolveFromDevice asks locator for the current position. Every failure,
// including a missing capability, is reported as ErrLocationUnavailable.
func (s *Service) ResolveFromDevice(ctx context.Context, locator DeviceLocator) (Coordinates, error) {
	ctx, span := tracer.Start(ctx, "weather: resolve-from-device")
	defer span.End()

	if locator == nil {
		locator = StaticLocator{}
	}

	coords, err := locator.CurrentPosition(ctx)
	if err != nil {
		msg := MsgPositionFailed
		if errors.Is(err, ErrGeolocationUnsupported) {
			msg = MsgGeolocationAbsent
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "device position unavailable")
		return Coordinates{}, newFlowError(ErrLocationUnavailable, msg, err)
	}

	span.SetAttributes(
		attribute.Float64("geo.lat", coords.Latitude),
		attribute.Float64("geo.lon", coords.Longitude),
	)
	return coords, nil
}

// ResolveFromCityName looks a city up through the weather API and returns the
// coordinates from the response's coord block.
func (s *Service) ResolveFromCityName(ctx context.Context, name string) (Coordinates, error) {
	ctx, span := tracer.Start(ctx, "weather: resolve-from-city")
	defer span.End()
	span.SetAttributes(attribute.String("city", name))

	if s.provider == nil {
		return Coordinates{}, newFlowError(ErrCityLookupFailed, MsgCityLookupFailed, errNoProvider)
	}

	body, err := s.provider.CurrentByCity(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "city lookup failed")
		return Coordinates{}, newFlowError(ErrCityLookupFailed, MsgCityLookupFailed, err)
	}

	coords, err := ParseCoordinates(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "city lookup returned no coordinates")
		return Coordinates{}, newFlowError(ErrCityLookupFailed, MsgCityLookupFailed, err)
	}
	return coords, nil
}

// FetchByCoordinates issues a single request for current conditions at c.
func (s *Service) FetchByCoordinates(ctx context.Context, c Coordinates) (Body, error) {
	ctx, span := tracer.Start(ctx, "weather: fetch-by-coordinates")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.lat", c.Latitude),
		attribute.Float64("geo.lon", c.Longitude),
	)

	if s.provider == nil {
		return nil, newFlowError(ErrWeatherFetchFailed, MsgWeatherFetchFailed, errNoProvider)
	}

	body, err := s.provider.CurrentByCoordinates(ctx, c)
	if err != nil {
		log.Printf("provider %s fetch failed for %.4f,%.4f: %v", s.provider.Name(), c.Latitude, c.Longitude, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather fetch failed")
		return nil, newFlowError(ErrWeatherFetchFailed, MsgWeatherFetchFailed, err)
	}
	return body, nil
}

// CurrentReading fetches and projects current conditions at c.
func (s *Service) CurrentReading(ctx context.Context, c Coordinates) (WeatherReading, error) {
	body, err := s.FetchByCoordinates(ctx, c)
	if err != nil {
		return WeatherReading{}, err
	}
	reading, err := Project(body)
	if err != nil {
		return WeatherReading{}, err
	}
	return reading, nil
}

var errNoProvider = fmt.Errorf("no weather provider configured")
