package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/activity-scout/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/activity-scout/pkg/errors"
)

func ptr(v float64) *float64 { return &v }

func newTestService(geo *stubGeoClient, weather *stubWeatherClient, places *stubPlacesClient, chat *stubChatClient) *service {
	return &service{
		cfg: Config{
			Model:              "gpt-test",
			Temperature:        0.2,
			Prompt:             "You are a friendly local guide.",
			ResultsPerCategory: 3,
			RequestBudget:      5 * time.Second,
		},
		geo:         geo,
		weather:     weather,
		places:      places,
		chat:        chat,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		countTokens: func(string) int { return 42 },
	}
}

func chicagoLocation() LocationInfo {
	return LocationInfo{City: "Chicago", Country: "United States", Region: "Illinois", Latitude: 41.88, Longitude: -87.63}
}

func chatCompletion(content string) chatgpt.ChatCompletionResponse {
	var resp chatgpt.ChatCompletionResponse
	resp.Choices = []struct {
		Message chatgpt.Message `json:"message"`
	}{
		{Message: chatgpt.Message{Role: "assistant", Content: content}},
	}
	return resp
}

func TestRecommendAllProvidersSucceed(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 20, Description: "clear sky"}}
	places := &stubPlacesClient{results: map[string][]Candidate{
		"best restaurants in Chicago":       {{Name: "Girl & The Goat", Address: "809 W Randolph St", Latitude: ptr(41.8841), Longitude: ptr(-87.6480)}},
		"concert venues in Chicago":         {{Name: "Metro", Address: "3730 N Clark St", Latitude: ptr(41.9499), Longitude: ptr(-87.6588)}},
		"sports stadiums arenas in Chicago": {{Name: "United Center", Address: "1901 W Madison St", Latitude: ptr(41.8807), Longitude: ptr(-87.6742)}},
	}}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Sunny Chicago day, get outside.","restaurants":["Girl & The Goat"],"concerts":["Metro"],"sports":["United Center"]}`)}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	require.Equal(t, "Sunny Chicago day, get outside.", result.Recommendation)
	require.Equal(t, "68°F, clear sky", result.Weather)
	require.Equal(t, "Chicago", result.Location.City)
	require.Equal(t, 41.8781, result.Location.Latitude)
	require.Equal(t, -87.6298, result.Location.Longitude)

	require.Len(t, result.Structured.Restaurants, 1)
	require.Len(t, result.Structured.Concerts, 1)
	require.Len(t, result.Structured.Sports, 1)
	require.Equal(t, CategoryRestaurant, result.Structured.Restaurants[0].Category)
	require.NotEmpty(t, result.Structured.Restaurants[0].UniqueID)
	require.False(t, result.Structured.Restaurants[0].Synthetic)

	require.True(t, result.Debug.APIStatus.Geocoding)
	require.True(t, result.Debug.APIStatus.Weather)
	require.True(t, result.Debug.APIStatus.Places)
	require.True(t, result.Debug.APIStatus.Narrative)
	require.Equal(t, "2025-06-01T12:00:00Z", result.Debug.Timestamp)

	require.NotNil(t, result.Activities)
	require.Equal(t, []string{"Girl & The Goat"}, result.Activities.Restaurants)
}

func TestRecommendRejectsInvalidCoordinates(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"latitude out of range", 91, 0},
		{"longitude out of range", 0, -181},
		{"nan latitude", nan(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			geo := &stubGeoClient{location: chicagoLocation()}
			weather := &stubWeatherClient{}
			places := &stubPlacesClient{}
			chat := &stubChatClient{}

			svc := newTestService(geo, weather, places, chat)
			_, err := svc.Recommend(context.Background(), Request{Latitude: tc.lat, Longitude: tc.lng})
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "invalid_input"))

			// Rejected before any external call.
			require.Zero(t, geo.calls)
			require.Zero(t, weather.calls)
			require.Zero(t, places.callCount())
			require.Zero(t, chat.calls)
		})
	}
}

func TestRecommendWeatherFailureUsesSentinel(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{err: errors.New("timeout")}
	places := &stubPlacesClient{}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Stay flexible today."}`)}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	// Sentinel is 20°C, rendered as 68°F.
	require.Equal(t, "68°F, weather data unavailable", result.Weather)
	require.False(t, result.Debug.APIStatus.Weather)
	// Narrative synthesis still ran.
	require.Equal(t, 1, chat.calls)
	require.Equal(t, "Stay flexible today.", result.Recommendation)
	require.Contains(t, chat.lastUserPrompt(), "weather data unavailable")
}

func TestRecommendSingleCategoryFailureIsIsolated(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 10, Description: "light rain"}}
	places := &stubPlacesClient{
		results: map[string][]Candidate{
			"best restaurants in Chicago":       {{Name: "Lou Malnati's", Address: "439 N Wells St", Latitude: ptr(41.8904), Longitude: ptr(-87.6340)}},
			"sports stadiums arenas in Chicago": {{Name: "Soldier Field", Address: "1410 Museum Campus Dr", Latitude: ptr(41.8623), Longitude: ptr(-87.6167)}},
		},
		failQueries: map[string]error{"concert venues in Chicago": errors.New("502 from provider")},
	}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Rainy day plans."}`)}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	require.Len(t, result.Structured.Restaurants, 1)
	require.Empty(t, result.Structured.Concerts)
	require.NotNil(t, result.Structured.Concerts)
	require.Len(t, result.Structured.Sports, 1)
	require.True(t, result.Debug.APIStatus.Places)
}

func TestRecommendAllCategoriesFailing(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 20, Description: "clear sky"}}
	places := &stubPlacesClient{failAll: errors.New("quota exhausted")}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Wander downtown."}`)}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	require.Empty(t, result.Structured.Restaurants)
	require.Empty(t, result.Structured.Concerts)
	require.Empty(t, result.Structured.Sports)
	require.False(t, result.Debug.APIStatus.Places)
	require.Equal(t, "Wander downtown.", result.Recommendation)
}

func TestRecommendNarrativeFallbackIsDeterministic(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 20, Description: "clear sky"}}
	places := &stubPlacesClient{}
	chat := &stubChatClient{err: errors.New("429 too many requests")}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	expected := "With the current clear sky and temperature of 20°C in Chicago, consider exploring local attractions that match these conditions. You might find interesting events happening nearby. Enjoy your time in Chicago!"
	require.Equal(t, expected, result.Recommendation)
	require.False(t, result.Debug.APIStatus.Narrative)
	require.NotNil(t, result.Debug.TokenUsage)
	require.Equal(t, 42, result.Debug.TokenUsage.PromptTokens)
}

func TestRecommendLocationFailureDegradesToUnknown(t *testing.T) {
	geo := &stubGeoClient{err: errors.New("provider unreachable")}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 5, Description: "snow"}}
	places := &stubPlacesClient{}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Bundle up."}`)}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	require.Equal(t, "Unknown", result.Location.City)
	require.Equal(t, 41.8781, result.Location.Latitude)
	require.False(t, result.Debug.APIStatus.Geocoding)
	// The downstream searches still run, scoped by the unknown city.
	require.ElementsMatch(t, []string{
		"best restaurants in Unknown",
		"concert venues in Unknown",
		"sports stadiums arenas in Unknown",
	}, places.queries())
}

func TestRecommendChicagoFilterScenario(t *testing.T) {
	candidates := []Candidate{
		{Name: "Alinea", Address: "1723 N Halsted St", Latitude: ptr(41.9134), Longitude: ptr(-87.6483)},
		{Name: "No Coords Diner", Address: "somewhere"},
		{Name: "Au Cheval", Address: "800 W Randolph St", Latitude: ptr(41.8847), Longitude: ptr(-87.6473)},
		{Name: "Half Coords Cafe", Address: "elsewhere", Latitude: ptr(41.9)},
		{Name: "Smoque BBQ", Address: "3800 N Pulaski Rd", Latitude: ptr(41.9506), Longitude: ptr(-87.7280)},
	}
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 22, Description: "few clouds"}}
	places := &stubPlacesClient{results: map[string][]Candidate{"best restaurants in Chicago": candidates}}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Eat well."}`)}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	restaurants := result.Structured.Restaurants
	require.Len(t, restaurants, 3)
	require.Equal(t, "Alinea", restaurants[0].Name)
	require.Equal(t, "Au Cheval", restaurants[1].Name)
	require.Equal(t, "Smoque BBQ", restaurants[2].Name)
	for _, item := range restaurants {
		require.LessOrEqual(t, item.Lat, 90.0)
		require.GreaterOrEqual(t, item.Lat, -90.0)
		require.LessOrEqual(t, item.Lng, 180.0)
		require.GreaterOrEqual(t, item.Lng, -180.0)
	}
}

func TestRecommendSyntheticOptIn(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 20, Description: "clear sky"}}
	places := &stubPlacesClient{failAll: errors.New("down")}
	chat := &stubChatClient{response: chatCompletion(`{"recommendation":"Improvise."}`)}

	svc := newTestService(geo, weather, places, chat)
	svc.cfg.AllowSynthetic = true

	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298, IncludeSynthetic: true})
	require.NoError(t, err)

	require.Len(t, result.Structured.Restaurants, 3)
	for _, item := range result.Structured.Restaurants {
		require.True(t, item.Synthetic)
	}
	// Real-data policy is unchanged for the caller who did not opt in.
	resultDefault, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)
	require.Empty(t, resultDefault.Structured.Restaurants)
}

func TestRecommendReturnsDegradedResultWhenBudgetExpires(t *testing.T) {
	svc := newTestService(&stubGeoClient{}, &stubWeatherClient{}, &stubPlacesClient{}, &stubChatClient{})
	svc.cfg.RequestBudget = 5 * time.Millisecond
	svc.geo = blockingGeoClient{}
	svc.weather = blockingWeatherClient{}
	svc.places = blockingPlacesClient{}
	svc.chat = blockingChatClient{}

	start := time.Now()
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)

	require.Equal(t, "Unknown", result.Location.City)
	require.Equal(t, 41.8781, result.Location.Latitude)
	require.Equal(t, "68°F, weather data unavailable", result.Weather)
	require.Empty(t, result.Structured.Restaurants)
	require.Empty(t, result.Structured.Concerts)
	require.Empty(t, result.Structured.Sports)
	require.Equal(t, ProviderStatus{}, result.Debug.APIStatus)
	// The deterministic fallback narrative still renders the sentinel weather.
	require.Contains(t, result.Recommendation, "weather data unavailable")
	require.Contains(t, result.Recommendation, "Unknown")
}

func TestRecommendNarrativePlainTextReply(t *testing.T) {
	geo := &stubGeoClient{location: chicagoLocation()}
	weather := &stubWeatherClient{info: WeatherInfo{TemperatureCelsius: 20, Description: "clear sky"}}
	places := &stubPlacesClient{}
	chat := &stubChatClient{response: chatCompletion("Take a walk along the lakefront.")}

	svc := newTestService(geo, weather, places, chat)
	result, err := svc.Recommend(context.Background(), Request{Latitude: 41.8781, Longitude: -87.6298})
	require.NoError(t, err)

	require.Equal(t, "Take a walk along the lakefront.", result.Recommendation)
	require.True(t, result.Debug.APIStatus.Narrative)
	require.Nil(t, result.Activities)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

type stubGeoClient struct {
	location LocationInfo
	err      error
	calls    int
}

func (s *stubGeoClient) Lookup(ctx context.Context) (LocationInfo, error) {
	s.calls++
	if s.err != nil {
		return LocationInfo{}, s.err
	}
	return s.location, nil
}

type stubWeatherClient struct {
	info  WeatherInfo
	err   error
	calls int
}

func (s *stubWeatherClient) Current(ctx context.Context, coord Coordinate) (WeatherInfo, error) {
	s.calls++
	if s.err != nil {
		return WeatherInfo{}, s.err
	}
	return s.info, nil
}

type stubPlacesClient struct {
	mu          sync.Mutex
	results     map[string][]Candidate
	failQueries map[string]error
	failAll     error
	seen        []string
}

func (s *stubPlacesClient) Search(ctx context.Context, query string, center Coordinate) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, query)
	if s.failAll != nil {
		return nil, s.failAll
	}
	if err, ok := s.failQueries[query]; ok {
		return nil, err
	}
	return s.results[query], nil
}

func (s *stubPlacesClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *stubPlacesClient) queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.seen))
	copy(out, s.seen)
	return out
}

// Blocking clients park until the request context is cancelled, standing in
// for providers that hang past the wall-clock budget.
type blockingGeoClient struct{}

func (blockingGeoClient) Lookup(ctx context.Context) (LocationInfo, error) {
	<-ctx.Done()
	return LocationInfo{}, ctx.Err()
}

type blockingWeatherClient struct{}

func (blockingWeatherClient) Current(ctx context.Context, coord Coordinate) (WeatherInfo, error) {
	<-ctx.Done()
	return WeatherInfo{}, ctx.Err()
}

type blockingPlacesClient struct{}

func (blockingPlacesClient) Search(ctx context.Context, query string, center Coordinate) ([]Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockingChatClient struct{}

func (blockingChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	<-ctx.Done()
	return chatgpt.ChatCompletionResponse{}, ctx.Err()
}

type stubChatClient struct {
	response chatgpt.ChatCompletionResponse
	err      error
	calls    int
	lastReq  chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	return s.response, nil
}

func (s *stubChatClient) lastUserPrompt() string {
	for _, msg := range s.lastReq.Messages {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	return ""
}
