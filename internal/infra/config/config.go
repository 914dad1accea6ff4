package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Weather   WeatherConfig   `yaml:"weather"`
	Places    PlacesConfig    `yaml:"places"`
	GeoIP     GeoIPConfig     `yaml:"geoip"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent POST requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	Prompt      string  `yaml:"prompt"`
}

// WeatherConfig points at the OpenWeather current conditions API.
type WeatherConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// PlacesConfig points at the SerpAPI local search endpoint.
type PlacesConfig struct {
	APIKey            string        `yaml:"apiKey"`
	BaseURL           string        `yaml:"baseUrl"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
}

// GeoIPConfig points at the IP geolocation provider.
type GeoIPConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// RecommendConfig controls the aggregation pipeline.
type RecommendConfig struct {
	ResultsPerCategory int           `yaml:"resultsPerCategory"`
	RequestBudget      time.Duration `yaml:"requestBudget"`
	Breakers           bool          `yaml:"breakers"`
	AllowSynthetic     bool          `yaml:"allowSynthetic"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	// Matches the dotenv convention the deploy scripts rely on; a missing
	// .env file is not an error.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_PROMPT"); v != "" {
		cfg.LLM.Prompt = v
	}
	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
	if v := os.Getenv("WEATHER_BASE_URL"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("WEATHER_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Weather.Timeout = parsed
		}
	}
	if v := os.Getenv("SERP_API_KEY"); v != "" {
		cfg.Places.APIKey = v
	}
	if v := os.Getenv("PLACES_BASE_URL"); v != "" {
		cfg.Places.BaseURL = v
	}
	if v := os.Getenv("PLACES_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Places.Timeout = parsed
		}
	}
	if v := os.Getenv("PLACES_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Places.RequestsPerSecond = parsed
		}
	}
	if v := os.Getenv("GEOIP_BASE_URL"); v != "" {
		cfg.GeoIP.BaseURL = v
	}
	if v := os.Getenv("GEOIP_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.GeoIP.Timeout = parsed
		}
	}
	if v := os.Getenv("RECOMMEND_RESULTS_PER_CATEGORY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Recommend.ResultsPerCategory = parsed
		}
	}
	if v := os.Getenv("RECOMMEND_REQUEST_BUDGET"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Recommend.RequestBudget = parsed
		}
	}
	if v := os.Getenv("RECOMMEND_BREAKERS"); v != "" {
		cfg.Recommend.Breakers = parseBool(v)
	}
	if v := os.Getenv("RECOMMEND_ALLOW_SYNTHETIC"); v != "" {
		cfg.Recommend.AllowSynthetic = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if clean := strings.TrimSpace(p); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 40 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     false,
				MaxAttempts: 2,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			Prompt:      "You are a friendly local guide. Given the user's current location and weather, introduce the weather and city briefly, then list 5 exciting things to do. Only number the actual activities.",
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Timeout: 10 * time.Second,
		},
		Places: PlacesConfig{
			BaseURL:           "https://serpapi.com/search",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 2,
			Burst:             3,
		},
		GeoIP: GeoIPConfig{
			BaseURL: "https://ipapi.co/json/",
			Timeout: 10 * time.Second,
		},
		Recommend: RecommendConfig{
			ResultsPerCategory: 3,
			RequestBudget:      25 * time.Second,
			Breakers:           true,
			AllowSynthetic:     false,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Prompt == "" {
		return errors.New("llm.prompt cannot be empty")
	}
	if c.Weather.BaseURL == "" {
		return errors.New("weather.baseUrl cannot be empty")
	}
	if c.Weather.Timeout <= 0 {
		return errors.New("weather.timeout must be positive")
	}
	if c.Places.BaseURL == "" {
		return errors.New("places.baseUrl cannot be empty")
	}
	if c.Places.Timeout <= 0 {
		return errors.New("places.timeout must be positive")
	}
	if c.Places.RequestsPerSecond <= 0 {
		return errors.New("places.requestsPerSecond must be positive")
	}
	if c.GeoIP.BaseURL == "" {
		return errors.New("geoip.baseUrl cannot be empty")
	}
	if c.GeoIP.Timeout <= 0 {
		return errors.New("geoip.timeout must be positive")
	}
	if c.Recommend.ResultsPerCategory <= 0 {
		return errors.New("recommend.resultsPerCategory must be positive")
	}
	if c.Recommend.RequestBudget <= 0 {
		return errors.New("recommend.requestBudget must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
