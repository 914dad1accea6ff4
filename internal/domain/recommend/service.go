package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/activity-scout/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/activity-scout/pkg/errors"
	"github.com/yanqian/activity-scout/pkg/metrics"
	"github.com/yanqian/activity-scout/pkg/util"
)

// Service exposes the location-based recommendation pipeline.
type Service interface {
	Recommend(ctx context.Context, req Request) (Result, error)
}

// GeoClient resolves the caller's place name.
type GeoClient interface {
	Lookup(ctx context.Context) (LocationInfo, error)
}

// WeatherClient fetches current conditions for a coordinate.
type WeatherClient interface {
	Current(ctx context.Context, coord Coordinate) (WeatherInfo, error)
}

// PlacesClient runs one category search scoped by query text and map center.
type PlacesClient interface {
	Search(ctx context.Context, query string, center Coordinate) ([]Candidate, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// Config wires runtime knobs for the recommendation domain.
type Config struct {
	Model              string
	Temperature        float32
	Prompt             string
	ResultsPerCategory int
	RequestBudget      time.Duration
	AllowSynthetic     bool
}

type service struct {
	cfg         Config
	geo         GeoClient
	weather     WeatherClient
	places      PlacesClient
	chat        ChatClient
	logger      *slog.Logger
	now         func() time.Time
	countTokens func(text string) int
}

// NewService wires up the recommendation domain.
func NewService(cfg Config, geo GeoClient, weather WeatherClient, places PlacesClient, chat ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:         cfg,
		geo:         geo,
		weather:     weather,
		places:      places,
		chat:        chat,
		logger:      logger.With("component", "recommend.service"),
		now:         util.NowUTC,
		countTokens: tokenCounter(cfg.Model),
	}
}

// Recommend runs the full pipeline: location, weather, concurrent category
// fan-out, narrative synthesis, assembly. Provider failures are absorbed into
// documented fallbacks; the only error returned is invalid input, raised
// before any external call is made.
func (s *service) Recommend(ctx context.Context, req Request) (Result, error) {
	coord := req.Coordinate()
	if !coord.Valid() {
		return Result{}, apperrors.Wrap("invalid_input", "missing or invalid latitude/longitude in request body", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestBudget)
	defer cancel()

	var status ProviderStatus

	location := s.resolveLocation(ctx, coord, &status)
	weather := s.resolveWeather(ctx, coord, &status)
	structured := s.searchCategories(ctx, location, coord, &status)
	narrative, activities, usage := s.synthesizeNarrative(ctx, location, weather, structured, &status)

	if req.IncludeSynthetic && s.cfg.AllowSynthetic {
		fillSynthetic(&structured, location, s.cfg.ResultsPerCategory)
	}

	result := Result{
		Recommendation: narrative,
		Structured:     structured,
		Weather:        weather.Display(),
		Location:       location,
		Debug: Debug{
			APIStatus: status,
			Timestamp: s.now().Format(time.RFC3339),
		},
	}
	if !activities.IsEmpty() {
		result.Activities = &activities
	}
	if usage != nil && !usage.IsZero() {
		result.Debug.TokenUsage = usage
	}
	return result, nil
}

func (s *service) resolveLocation(ctx context.Context, coord Coordinate, status *ProviderStatus) LocationInfo {
	location, err := s.geo.Lookup(ctx)
	if err != nil {
		s.logger.Warn("location lookup failed", "error", err)
		return UnknownLocation(coord)
	}
	status.Geocoding = true
	if strings.TrimSpace(location.City) == "" {
		location.City = "Unknown"
	}
	if strings.TrimSpace(location.Country) == "" {
		location.Country = "Unknown"
	}
	if strings.TrimSpace(location.Region) == "" {
		location.Region = "Unknown"
	}
	// The response always echoes the caller's coordinate, not the provider's.
	location.Latitude = coord.Latitude
	location.Longitude = coord.Longitude
	return location
}

func (s *service) resolveWeather(ctx context.Context, coord Coordinate, status *ProviderStatus) WeatherInfo {
	weather, err := s.weather.Current(ctx, coord)
	if err != nil {
		s.logger.Warn("weather lookup failed", "error", err)
		return FallbackWeather()
	}
	status.Weather = true
	return weather
}

func (s *service) searchCategories(ctx context.Context, location LocationInfo, coord Coordinate, status *ProviderStatus) Structured {
	searches := [3]struct {
		category Category
		query    string
	}{
		{CategoryRestaurant, fmt.Sprintf("best restaurants in %s", location.City)},
		{CategoryConcert, fmt.Sprintf("concert venues in %s", location.City)},
		{CategorySport, fmt.Sprintf("sports stadiums arenas in %s", location.City)},
	}

	var lists [3][]VenueItem
	var wg sync.WaitGroup
	for i, search := range searches {
		wg.Add(1)
		go func(i int, category Category, query string) {
			defer wg.Done()
			candidates, err := s.places.Search(ctx, query, coord)
			if err != nil {
				s.logger.Warn("category search failed", "category", category, "error", err)
				lists[i] = []VenueItem{}
				return
			}
			lists[i] = FilterVenues(candidates, category, location.City, s.cfg.ResultsPerCategory)
		}(i, search.category, search.query)
	}
	wg.Wait()

	status.Places = len(lists[0])+len(lists[1])+len(lists[2]) > 0
	return Structured{Restaurants: lists[0], Concerts: lists[1], Sports: lists[2]}
}

const jsonEnforcer = ` Respond ONLY with valid minified JSON using this shape: {"recommendation":string,"restaurants":string[],"concerts":string[],"sports":string[]}. The recommendation is a short friendly paragraph; the arrays hold activity names only and may be empty. Never return plain text or other fields.`

func (s *service) synthesizeNarrative(ctx context.Context, location LocationInfo, weather WeatherInfo, structured Structured, status *ProviderStatus) (string, Activities, *metrics.TokenUsage) {
	system := strings.TrimSpace(s.cfg.Prompt) + jsonEnforcer
	user := s.buildUserPrompt(location, weather, structured)

	usage := &metrics.TokenUsage{PromptTokens: s.countTokens(system + user)}
	usage.TotalTokens = usage.PromptTokens

	completion, err := s.chat.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:          s.cfg.Model,
		Temperature:    s.cfg.Temperature,
		ResponseFormat: &chatgpt.ResponseFormat{Type: "json_object"},
		Messages: []chatgpt.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil || len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		s.logger.Warn("narrative synthesis failed", "error", err)
		return s.fallbackNarrative(location, weather), Activities{}, usage
	}

	if completion.Usage.TotalTokens > 0 {
		usage = &metrics.TokenUsage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		}
	}
	status.Narrative = true

	content := completion.Choices[0].Message.Content
	return extractNarrative(content), ParseActivities(content), usage
}

func (s *service) buildUserPrompt(location LocationInfo, weather WeatherInfo, structured Structured) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I am in %s at %s. The weather is %d°F with %s. Suggest 5 specific activities I can enjoy right now based on this location and weather.",
		location.City, s.now().Format(time.RFC3339), weather.Fahrenheit(), weather.Description)
	if names := venueNames(structured); len(names) > 0 {
		fmt.Fprintf(&b, " Nearby options include: %s.", strings.Join(names, ", "))
	}
	return b.String()
}

// fallbackNarrative is the deterministic sentence used when the language model
// is unreachable. It reports Celsius on purpose, matching the internal reading
// rather than the display conversion.
func (s *service) fallbackNarrative(location LocationInfo, weather WeatherInfo) string {
	return fmt.Sprintf("With the current %s and temperature of %.0f°C in %s, consider exploring local attractions that match these conditions. You might find interesting events happening nearby. Enjoy your time in %s!",
		weather.Description, weather.TemperatureCelsius, location.City, location.City)
}

func venueNames(structured Structured) []string {
	names := make([]string, 0, len(structured.Restaurants)+len(structured.Concerts)+len(structured.Sports))
	for _, list := range [][]VenueItem{structured.Restaurants, structured.Concerts, structured.Sports} {
		for _, item := range list {
			if item.Name != "" {
				names = append(names, item.Name)
			}
		}
	}
	return names
}

func fillSynthetic(structured *Structured, location LocationInfo, n int) {
	if len(structured.Restaurants) == 0 {
		structured.Restaurants = SyntheticVenues(location, CategoryRestaurant, n)
	}
	if len(structured.Concerts) == 0 {
		structured.Concerts = SyntheticVenues(location, CategoryConcert, n)
	}
	if len(structured.Sports) == 0 {
		structured.Sports = SyntheticVenues(location, CategorySport, n)
	}
}

// tokenCounter builds a lazy tiktoken-backed counter. The encoding is resolved
// on first use so startup does not depend on the vocabulary download.
func tokenCounter(model string) func(string) int {
	var once sync.Once
	var enc *tiktoken.Tiktoken
	return func(text string) int {
		once.Do(func() {
			var err error
			enc, err = tiktoken.EncodingForModel(model)
			if err != nil {
				enc, _ = tiktoken.GetEncoding("cl100k_base")
			}
		})
		if enc == nil {
			return 0
		}
		return len(enc.Encode(text, nil, nil))
	}
}
