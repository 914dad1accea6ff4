//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/activity-scout/internal/bootstrap"
	"github.com/yanqian/activity-scout/internal/domain/recommend"
	"github.com/yanqian/activity-scout/internal/infra/config"
	httpiface "github.com/yanqian/activity-scout/internal/interface/http"
	"github.com/yanqian/activity-scout/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideRecommendConfig,
		provideGeoClient,
		provideWeatherClient,
		providePlacesClient,
		provideChatClient,
		recommend.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
