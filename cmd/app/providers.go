package main

import (
	"log/slog"

	"github.com/yanqian/activity-scout/internal/domain/recommend"
	"github.com/yanqian/activity-scout/internal/infra/config"
	"github.com/yanqian/activity-scout/internal/infra/geoip/ipapi"
	"github.com/yanqian/activity-scout/internal/infra/llm/chatgpt"
	"github.com/yanqian/activity-scout/internal/infra/places/serpapi"
	"github.com/yanqian/activity-scout/internal/infra/resilience"
	"github.com/yanqian/activity-scout/internal/infra/weather/openweather"
)

func provideRecommendConfig(cfg *config.Config) recommend.Config {
	return recommend.Config{
		Model:              cfg.LLM.Model,
		Temperature:        cfg.LLM.Temperature,
		Prompt:             cfg.LLM.Prompt,
		ResultsPerCategory: cfg.Recommend.ResultsPerCategory,
		RequestBudget:      cfg.Recommend.RequestBudget,
		AllowSynthetic:     cfg.Recommend.AllowSynthetic,
	}
}

func provideGeoClient(cfg *config.Config, logger *slog.Logger) recommend.GeoClient {
	client := ipapi.NewClient(cfg.GeoIP.BaseURL, cfg.GeoIP.Timeout)
	if !cfg.Recommend.Breakers {
		return client
	}
	return resilience.WrapGeo(client, logger)
}

func provideWeatherClient(cfg *config.Config, logger *slog.Logger) (recommend.WeatherClient, error) {
	client, err := openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout)
	if err != nil {
		return nil, err
	}
	if !cfg.Recommend.Breakers {
		return client, nil
	}
	return resilience.WrapWeather(client, logger), nil
}

func providePlacesClient(cfg *config.Config, logger *slog.Logger) (recommend.PlacesClient, error) {
	client, err := serpapi.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL, cfg.Places.Timeout, cfg.Places.RequestsPerSecond, cfg.Places.Burst)
	if err != nil {
		return nil, err
	}
	if !cfg.Recommend.Breakers {
		return client, nil
	}
	return resilience.WrapPlaces(client, logger), nil
}

func provideChatClient(cfg *config.Config, logger *slog.Logger) (recommend.ChatClient, error) {
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, err
	}
	if !cfg.Recommend.Breakers {
		return client, nil
	}
	return resilience.WrapChat(client, logger), nil
}
