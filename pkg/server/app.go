package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"TokenWatch/internal/usecase"
	"TokenWatch/pkg/config"
	xhttp "TokenWatch/pkg/http"
	applogger "TokenWatch/pkg/logger"
	"TokenWatch/pkg/queue"
)

// App owns the pipeline lifecycle: ingestion, queue bridge, workers,
// exporter and the HTTP surface.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	redis      *redis.Client
	ingestor   *usecase.Ingestor
	bridge     *queue.Bridge
	workers    *queue.RedisQueue
	exporter   *usecase.Exporter
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	redisClient *redis.Client,
	ingestor *usecase.Ingestor,
	bridge *queue.Bridge,
	workers *queue.RedisQueue,
	exporter *usecase.Exporter,
	handler xhttp.Handler,
) *App {
	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return &App{
		cfg:        cfg,
		log:        log,
		redis:      redisClient,
		ingestor:   ingestor,
		bridge:     bridge,
		workers:    workers,
		exporter:   exporter,
		httpServer: httpServer,
	}
}

// Run starts every component and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.exporter.Start(ctx); err != nil {
		return err
	}
	if a.exporter.Enabled() {
		a.log.Info("signal exporter started")
	}

	if err := a.workers.Start(); err != nil {
		return err
	}
	a.log.Info("worker queues started", applogger.Int("workers", a.cfg.Queue.Workers))

	if err := a.bridge.Start(); err != nil {
		return err
	}
	a.log.Info("queue bridge started", applogger.String("namespace", a.cfg.Queue.Namespace))

	if a.cfg.Stream.WebSocketURL != "" {
		if err := a.ingestor.Start(ctx); err != nil {
			// candle ingestion is not load-bearing for queue processing
			a.log.Error("ingestor start failed", applogger.Error(err))
		} else {
			a.log.Info("market ingestor started",
				applogger.Any("tickers", a.cfg.Ingest.Tickers),
				applogger.Duration("interval", a.cfg.Ingest.Interval),
			)
		}
	} else {
		a.log.Warn("no stream configured, candle ingestion disabled")
	}

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops components in reverse dependency order: producers first,
// then the bridge feeding the workers, then the workers themselves.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.cfg.Stream.WebSocketURL != "" {
		if err := a.ingestor.Stop(); err != nil {
			a.log.Warn("ingestor stop error", applogger.Error(err))
		}
	}
	if err := a.bridge.Stop(shutdownCtx); err != nil {
		a.log.Warn("bridge stop error", applogger.Error(err))
	}
	if err := a.workers.Stop(shutdownCtx); err != nil {
		a.log.Warn("worker stop error", applogger.Error(err))
	}
	a.exporter.Stop()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("redis close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
