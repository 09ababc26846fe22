package weather

import (
	"errors"
	"fmt"
)

var (
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrCityLookupFailed    = errors.New("city lookup failed")
	ErrWeatherFetchFailed  = errors.New("weather fetch failed")
	ErrProjectionFailed    = errors.New("projection failed")
	ErrFormattingFailed    = errors.New("formatting failed")
)

// User-facing messages for each failure kind.
const (
	MsgPositionFailed     = "Unable to fetch your location. Please try again."
	MsgGeolocationAbsent  = "Geolocation is not supported by your browser."
	MsgWeatherFetchFailed = "Unable to fetch weather data. Please try again."
	MsgCityLookupFailed   = "Unable to fetch weather data. Please check the city name and try again."
	MsgProjectionFailed   = "Error processing weather data. Please try again."
	MsgFormattingFailed   = "Error processing date and time. Please try again."
)

// FlowError is a terminal failure of one lookup flow. Kind is one of the
// Err* sentinels above; errors.Is matches against both Kind and Cause.
type FlowError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *FlowError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
}

func (e *FlowError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newFlowError(kind error, msg string, cause error) *FlowError {
	return &FlowError{Kind: kind, Message: msg, Cause: cause}
}

// messageFor returns the default user-facing message for a failure kind.
func messageFor(kind error) string {
	switch kind {
	case ErrLocationUnavailable:
		return MsgPositionFailed
	case ErrCityLookupFailed:
		return MsgCityLookupFailed
	case ErrWeatherFetchFailed:
		return MsgWeatherFetchFailed
	case ErrProjectionFailed:
		return MsgProjectionFailed
	case ErrFormattingFailed:
		return MsgFormattingFailed
	default:
		return MsgWeatherFetchFailed
	}
}

// AsFlowError normalizes err into a *FlowError. Errors that are not already
// flow errors are classified by the sentinel they wrap, falling back to fallback.
func AsFlowError(err error, fallback error) *FlowError {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe
	}
	for _, kind := range []error{
		ErrLocationUnavailable,
		ErrCityLookupFailed,
		ErrWeatherFetchFailed,
		ErrProjectionFailed,
		ErrFormattingFailed,
	} {
		if errors.Is(err, kind) {
			return newFlowError(kind, messageFor(kind), err)
		}
	}
	return newFlowError(fallback, messageFor(fallback), err)
}
