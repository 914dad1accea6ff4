package ipapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/activity-scout/internal/domain/recommend"
)

const defaultBaseURL = "https://ipapi.co/json/"

// Client resolves the caller's place name via the ipapi.co lookup endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup fetches the location associated with the caller's network address.
func (c *Client) Lookup(ctx context.Context) (recommend.LocationInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return recommend.LocationInfo{}, fmt.Errorf("build location request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recommend.LocationInfo{}, fmt.Errorf("location request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return recommend.LocationInfo{}, fmt.Errorf("location request error: status=%d body=%s", resp.StatusCode, string(detail))
	}

	var raw struct {
		City        string  `json:"city"`
		CountryName string  `json:"country_name"`
		Region      string  `json:"region"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return recommend.LocationInfo{}, fmt.Errorf("decode location response: %w", err)
	}
	if strings.TrimSpace(raw.City) == "" {
		return recommend.LocationInfo{}, errors.New("location data not available from provider")
	}

	return recommend.LocationInfo{
		City:      raw.City,
		Country:   raw.CountryName,
		Region:    raw.Region,
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
	}, nil
}
