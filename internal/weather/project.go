package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-lookup/internal/common"
)

// observedAtLayout matches the long en-US rendering used by the widget,
// e.g. "Tuesday, November 14, 2023 at 11:13 PM".
const observedAtLayout = "Monday, January 2, 2006 at 3:04 PM"

// maxEpochMillis bounds the instants the widget can render.
const maxEpochMillis = 8.64e15

// IconFor maps an OpenWeatherMap icon code to a display icon.
// Unknown codes, including the empty string, fall back to IconClear.
func IconFor(code string) Icon {
	switch code {
	case "01d", "01n":
		return IconClear
	case "02d", "02n", "03d", "03n", "04d", "04n":
		return IconCloud
	case "09d", "09n", "10d", "10n":
		return IconRain
	case "13d", "13n":
		return IconSnow
	default:
		return IconClear
	}
}

// FormatObservedAt adds the location's UTC offset (seconds) to the observation
// time (unix seconds) and renders the result in UTC. Sub-millisecond
// precision is truncated.
func FormatObservedAt(dt, timezone float64) (string, error) {
	ms := math.Trunc((dt + timezone) * 1000)
	if math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
		return "", fmt.Errorf("%w: timestamp %v+%v out of range", ErrFormattingFailed, dt, timezone)
	}
	return time.UnixMilli(int64(ms)).UTC().Format(observedAtLayout), nil
}

// Project maps a current-conditions body into a WeatherReading. It is pure:
// the same body always yields the same reading.
func Project(body Body) (WeatherReading, error) {
	var c currentConditions
	if err := json.Unmarshal(body, &c); err != nil {
		return WeatherReading{}, projectionError(err)
	}

	switch {
	case len(c.Weather) == 0:
		return WeatherReading{}, projectionError(fmt.Errorf("weather[0] missing"))
	case c.Weather[0].Icon == nil || c.Weather[0].Main == nil:
		return WeatherReading{}, projectionError(fmt.Errorf("weather[0].icon or weather[0].main missing"))
	case c.Main == nil || c.Main.Temp == nil || c.Main.TempMin == nil ||
		c.Main.TempMax == nil || c.Main.Humidity == nil:
		return WeatherReading{}, projectionError(fmt.Errorf("main block incomplete"))
	case c.Wind == nil || c.Wind.Speed == nil:
		return WeatherReading{}, projectionError(fmt.Errorf("wind.speed missing"))
	case c.Name == nil:
		return WeatherReading{}, projectionError(fmt.Errorf("name missing"))
	case c.Dt == nil || c.Timezone == nil:
		return WeatherReading{}, projectionError(fmt.Errorf("dt or timezone missing"))
	}

	observedAt, err := FormatObservedAt(*c.Dt, *c.Timezone)
	if err != nil {
		return WeatherReading{}, newFlowError(ErrFormattingFailed, MsgFormattingFailed, err)
	}

	return WeatherReading{
		LocationName:    *c.Name,
		ObservedAt:      observedAt,
		HumidityPercent: common.FormatNumber(*c.Main.Humidity) + "%",
		WindSpeed:       common.FormatNumber(*c.Wind.Speed) + " km/h",
		MinTemp:         celsius(*c.Main.TempMin),
		MaxTemp:         celsius(*c.Main.TempMax),
		CurrentTemp:     celsius(*c.Main.Temp),
		Description:     *c.Weather[0].Main,
		Icon:            IconFor(*c.Weather[0].Icon),
	}, nil
}

// ParseCoordinates extracts coord.lat/coord.lon from a city lookup body.
func ParseCoordinates(body Body) (Coordinates, error) {
	var c currentConditions
	if err := json.Unmarshal(body, &c); err != nil {
		return Coordinates{}, err
	}
	if c.Coord == nil || c.Coord.Lat == nil || c.Coord.Lon == nil {
		return Coordinates{}, fmt.Errorf("coord missing from response")
	}
	return Coordinates{Latitude: *c.Coord.Lat, Longitude: *c.Coord.Lon}, nil
}

func celsius(v float64) string {
	return common.FormatNumber(v) + "°C"
}

func projectionError(cause error) *FlowError {
	return newFlowError(ErrProjectionFailed, MsgProjectionFailed, cause)
}
