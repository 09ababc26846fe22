package weather

import (
	"context"
	"errors"
	"fmt"
)

// ErrGeolocationUnsupported is returned by a DeviceLocator when the platform
// has no position capability at all.
var ErrGeolocationUnsupported = errors.New("geolocation is not supported")

// PositionReport is the outcome of a browser geolocation request, as posted
// by the client.
type PositionReport struct {
	Supported bool     `json:"supported"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	// Error carries the browser's failure reason (denied, unavailable, timeout).
	Error string `json:"error,omitempty"`
}

func (r PositionReport) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if !r.Supported {
		return Coordinates{}, ErrGeolocationUnsupported
	}
	if r.Error != "" {
		return Coordinates{}, fmt.Errorf("position request failed: %s", r.Error)
	}
	if r.Latitude == nil || r.Longitude == nil {
		return Coordinates{}, errors.New("position report has no coordinates")
	}
	return Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}, nil
}

// StaticLocator reports a fixed, operator-configured position. A nil Coords
// behaves like a platform without geolocation.
type StaticLocator struct {
	Coords *Coordinates
}

func (s StaticLocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if s.Coords == nil {
		return Coordinates{}, ErrGeolocationUnsupported
	}
	return *s.Coords, nil
}
