package weather

import "encoding/json"

// Icon identifies a static display asset.
type Icon string

const (
	IconClear   Icon = "clear"
	IconCloud   Icon = "cloud"
	IconRain    Icon = "rain"
	IconSnow    Icon = "snow"
	IconDrizzle Icon = "drizzle" // shipped as an asset, never selected by IconFor

	// Fixed widget assets, not tied to a condition code.
	IconWind     Icon = "wind"
	IconHumidity Icon = "humidity"
	IconMinTemp  Icon = "mintemp"
	IconMaxTemp  Icon = "maxtemp"
	IconSearch   Icon = "search"
	IconError    Icon = "error"
)

// Coordinates is a latitude/longitude pair used as the key into the weather lookup.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// WeatherReading is the complete set of display values derived from one
// successful fetch. It is immutable once built and replaced as a whole.
type WeatherReading struct {
	LocationName    string `json:"locationName"`
	ObservedAt      string `json:"observedAt"`
	HumidityPercent string `json:"humidityPercent"`
	WindSpeed       string `json:"windSpeed"`
	MinTemp         string `json:"minTemp"`
	MaxTemp         string `json:"maxTemp"`
	CurrentTemp     string `json:"currentTemp"`
	Description     string `json:"description"`
	Icon            Icon   `json:"icon"`
}

// Body is a syntactically valid JSON document returned by the weather API.
// Field-level extraction is left to Project and ParseCoordinates.
type Body json.RawMessage

// currentConditions is the decoded shape of the "current weather" endpoint.
// Fields are pointers so missing values can be told apart from zeros.
type currentConditions struct {
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Icon *string `json:"icon"`
		Main *string `json:"main"`
	} `json:"weather"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		TempMin  *float64 `json:"temp_min"`
		TempMax  *float64 `json:"temp_max"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Name     *string  `json:"name"`
	Dt       *float64 `json:"dt"`
	Timezone *float64 `json:"timezone"`
}
