package weather

import "context"

// Provider abstracts the weather API's "current weather" endpoints.
type Provider interface {
	Name() string
	// CurrentByCoordinates returns the metric current-conditions body for c.
	CurrentByCoordinates(ctx context.Context, c Coordinates) (Body, error)
	// CurrentByCity returns the current-conditions body for a free-text city
	// name. Only its coord block is consumed.
	CurrentByCity(ctx context.Context, city string) (Body, error)
}

// DeviceLocator abstracts the host device's current-position capability.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}
