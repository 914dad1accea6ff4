package recommend

import (
	"fmt"
	"math"

	"github.com/yanqian/activity-scout/pkg/metrics"
)

// Category identifies one of the three venue searches the pipeline fans out to.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryConcert    Category = "concert"
	CategorySport      Category = "sport"
)

// Coordinate is a latitude/longitude pair identifying a point on Earth.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair is finite and within geographic range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return math.Abs(c.Latitude) <= 90 && math.Abs(c.Longitude) <= 180
}

// Request captures the payload accepted by the recommendation service.
type Request struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// IncludeSynthetic asks for clearly labeled placeholder venues in
	// categories where no real provider data came back. Off by default.
	IncludeSynthetic bool `json:"includeSynthetic"`
}

func (r Request) Coordinate() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// LocationInfo is the resolved place for a coordinate. Lives for one request.
type LocationInfo struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// UnknownLocation is the degraded stand-in when the geolocation provider fails.
func UnknownLocation(coord Coordinate) LocationInfo {
	return LocationInfo{
		City:      "Unknown",
		Country:   "Unknown",
		Region:    "Unknown",
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
	}
}

// WeatherInfo carries current conditions in Celsius; display is always Fahrenheit.
type WeatherInfo struct {
	TemperatureCelsius float64
	Description        string
}

// FallbackWeather is the sentinel substituted when the weather provider fails.
func FallbackWeather() WeatherInfo {
	return WeatherInfo{TemperatureCelsius: 20, Description: "weather data unavailable"}
}

// Fahrenheit converts the stored Celsius reading for display.
func (w WeatherInfo) Fahrenheit() int {
	return int(math.Round(w.TemperatureCelsius*9/5 + 32))
}

// Display renders the formatted weather string returned to callers.
func (w WeatherInfo) Display() string {
	return fmt.Sprintf("%d°F, %s", w.Fahrenheit(), w.Description)
}

// Candidate is a raw provider entry before coordinate filtering. Latitude and
// Longitude are pointers so entries without GPS data can be told apart from
// entries at (0, 0).
type Candidate struct {
	Name      string
	Address   string
	Date      string
	Latitude  *float64
	Longitude *float64
}

// VenueItem is one filtered, category-tagged venue returned to the caller.
type VenueItem struct {
	Name      string   `json:"name"`
	Venue     string   `json:"venue"`
	Date      string   `json:"date,omitempty"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Category  Category `json:"category"`
	UniqueID  string   `json:"uniqueId"`
	Synthetic bool     `json:"synthetic,omitempty"`
}

// Structured groups the capped venue lists by category.
type Structured struct {
	Restaurants []VenueItem `json:"restaurants"`
	Concerts    []VenueItem `json:"concerts"`
	Sports      []VenueItem `json:"sports"`
}

// ProviderStatus records per-provider success for one request. It replaces the
// process-global status map the service previously kept, so concurrent
// requests can no longer leak state into each other.
type ProviderStatus struct {
	Geocoding bool `json:"geocoding"`
	Weather   bool `json:"weather"`
	Places    bool `json:"places"`
	Narrative bool `json:"narrative"`
}

// Debug is the diagnostics block attached to every result.
type Debug struct {
	APIStatus  ProviderStatus      `json:"apiStatus"`
	Timestamp  string              `json:"timestamp"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Result is the merged response for one coordinate. It is never persisted.
type Result struct {
	Recommendation string       `json:"recommendation"`
	Structured     Structured   `json:"structured"`
	Activities     *Activities  `json:"activities,omitempty"`
	Weather        string       `json:"weather"`
	Location       LocationInfo `json:"location"`
	Debug          Debug        `json:"_debug"`
}

// DegradedResult is the outermost safety net: a renderable, fully degraded
// response used when assembly itself fails unexpectedly.
func DegradedResult(err error) Result {
	debug := Debug{}
	if err != nil {
		debug.Error = err.Error()
	}
	return Result{
		Recommendation: "Could not generate recommendations at this time.",
		Structured: Structured{
			Restaurants: []VenueItem{},
			Concerts:    []VenueItem{},
			Sports:      []VenueItem{},
		},
		Weather:  "Unknown",
		Location: LocationInfo{City: "Unknown", Country: "Unknown", Region: "Unknown"},
		Debug:    debug,
	}
}
