// Package resilience wraps the outbound provider clients with circuit
// breakers. An open breaker surfaces as an ordinary provider error, which the
// recommendation pipeline already absorbs into its fallback paths; the breaker
// only spares a failing provider from being hammered while it recovers.
package resilience

import (
	"context"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yanqian/activity-scout/internal/domain/recommend"
	"github.com/yanqian/activity-scout/internal/infra/llm/chatgpt"
)

func newBreaker[T any](name string, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

type geoBreaker struct {
	inner recommend.GeoClient
	cb    *gobreaker.CircuitBreaker[recommend.LocationInfo]
}

// WrapGeo guards the geolocation client with a circuit breaker.
func WrapGeo(inner recommend.GeoClient, logger *slog.Logger) recommend.GeoClient {
	return &geoBreaker{inner: inner, cb: newBreaker[recommend.LocationInfo]("geoip", logger)}
}

func (g *geoBreaker) Lookup(ctx context.Context) (recommend.LocationInfo, error) {
	return g.cb.Execute(func() (recommend.LocationInfo, error) {
		return g.inner.Lookup(ctx)
	})
}

type weatherBreaker struct {
	inner recommend.WeatherClient
	cb    *gobreaker.CircuitBreaker[recommend.WeatherInfo]
}

// WrapWeather guards the weather client with a circuit breaker.
func WrapWeather(inner recommend.WeatherClient, logger *slog.Logger) recommend.WeatherClient {
	return &weatherBreaker{inner: inner, cb: newBreaker[recommend.WeatherInfo]("weather", logger)}
}

func (w *weatherBreaker) Current(ctx context.Context, coord recommend.Coordinate) (recommend.WeatherInfo, error) {
	return w.cb.Execute(func() (recommend.WeatherInfo, error) {
		return w.inner.Current(ctx, coord)
	})
}

type placesBreaker struct {
	inner recommend.PlacesClient
	cb    *gobreaker.CircuitBreaker[[]recommend.Candidate]
}

// WrapPlaces guards the category search client with a circuit breaker shared
// across the three concurrent category queries.
func WrapPlaces(inner recommend.PlacesClient, logger *slog.Logger) recommend.PlacesClient {
	return &placesBreaker{inner: inner, cb: newBreaker[[]recommend.Candidate]("places", logger)}
}

func (p *placesBreaker) Search(ctx context.Context, query string, center recommend.Coordinate) ([]recommend.Candidate, error) {
	return p.cb.Execute(func() ([]recommend.Candidate, error) {
		return p.inner.Search(ctx, query, center)
	})
}

type chatBreaker struct {
	inner recommend.ChatClient
	cb    *gobreaker.CircuitBreaker[chatgpt.ChatCompletionResponse]
}

// WrapChat guards the language-model client with a circuit breaker.
func WrapChat(inner recommend.ChatClient, logger *slog.Logger) recommend.ChatClient {
	return &chatBreaker{inner: inner, cb: newBreaker[chatgpt.ChatCompletionResponse]("narrative", logger)}
}

func (c *chatBreaker) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	return c.cb.Execute(func() (chatgpt.ChatCompletionResponse, error) {
		return c.inner.CreateChatCompletion(ctx, req)
	})
}
