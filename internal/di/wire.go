//go:build wireinject
// +build wireinject

package di

import (
	"TokenWatch/pkg/config"
	"TokenWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideBus,

		// Domain state
		ProvideMarketStore,
		ProvideEngine,
		ProvideAlertStore,
		ProvideDetectors,

		// External services
		ProvideVerdictCache,
		ProvideSecurity,
		ProvideNotifier,
		ProvideAdvice,
		ProvideMarketStream,

		// Jobs and queues
		ProvideParserRunJob,
		ProvideSocialIntakeJob,
		ProvideChainEventsJob,
		ProvideWhalesScanJob,
		ProvideSignalsComputeJob,
		ProvideWorkerQueue,
		ProvideBridge,
		ProvideCandleHook,

		// Ingestion and export
		ProvideIngestor,
		ProvideFirehose,
		ProvideSignalSink,
		ProvideExporter,

		// HTTP surface
		ProvideHTTPHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
