package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yanqian/activity-scout/internal/domain/recommend"
)

const defaultBaseURL = "https://serpapi.com/search"

// Client runs local-place searches against the SerpAPI Google Maps engine.
// Outbound calls are throttled with a token bucket so the three-way category
// fan-out cannot burn through the API quota.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds an API client.
func NewClient(apiKey, baseURL string, timeout time.Duration, requestsPerSecond float64, burst int) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("serpapi key cannot be empty")
	}
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 3
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}, nil
}

// Search runs one category query centered on the given coordinate. An empty
// result set is not an error; only transport and decoding failures are.
func (c *Client) Search(ctx context.Context, query string, center recommend.Coordinate) ([]recommend.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("places rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("q", query)
	params.Set("ll", fmt.Sprintf("@%f,%f,15z", center.Latitude, center.Longitude))
	params.Set("type", "search")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("places request error: status=%d body=%s", resp.StatusCode, string(detail))
	}

	var raw struct {
		LocalResults []localResult `json:"local_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}

	candidates := make([]recommend.Candidate, 0, len(raw.LocalResults))
	for _, result := range raw.LocalResults {
		cand := recommend.Candidate{
			Name:    result.Title,
			Address: result.Address,
			Date:    result.Date,
		}
		if result.GPSCoordinates != nil {
			cand.Latitude = result.GPSCoordinates.Latitude
			cand.Longitude = result.GPSCoordinates.Longitude
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

type localResult struct {
	Title          string          `json:"title"`
	Address        string          `json:"address"`
	Date           string          `json:"date"`
	GPSCoordinates *gpsCoordinates `json:"gps_coordinates"`
}

// Pointers keep "coordinate absent" distinguishable from zero values.
type gpsCoordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
