package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/activity-scout/internal/domain/recommend"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches current conditions from the OpenWeather API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openweather api key cannot be empty")
	}
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Current retrieves metric-unit conditions for the given coordinate.
func (c *Client) Current(ctx context.Context, coord recommend.Coordinate) (recommend.WeatherInfo, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return recommend.WeatherInfo{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recommend.WeatherInfo{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return recommend.WeatherInfo{}, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(detail))
	}

	var raw struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return recommend.WeatherInfo{}, fmt.Errorf("decode weather response: %w", err)
	}
	if len(raw.Weather) == 0 {
		return recommend.WeatherInfo{}, errors.New("weather response missing conditions")
	}

	return recommend.WeatherInfo{
		TemperatureCelsius: raw.Main.Temp,
		Description:        raw.Weather[0].Description,
	}, nil
}
