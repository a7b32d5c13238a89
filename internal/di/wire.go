//go:build wireinject
// +build wireinject

package di

import (
	"QuantForge/pkg/config"
	"QuantForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories and collaborators
		ProvideCandleArchive,
		ProvideEventPublisher,
		ProvideMarketData,
		ProvideTrainer,
		ProvideRenderer,
		ProvideRegistry,
		ProvideSessions,

		// Use cases
		ProvideDatasetUseCase,
		ProvideMarketUseCase,
		ProvideModelUseCase,
		ProvideReportUseCase,

		// HTTP surface
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
