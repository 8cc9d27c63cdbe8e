package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	domrepo "TokenWatch/internal/domain/repository"
	"TokenWatch/internal/engine"
	"TokenWatch/internal/handler/api"
	"TokenWatch/internal/market"
	internalrepo "TokenWatch/internal/repository"
	"TokenWatch/internal/services/advice"
	"TokenWatch/internal/services/marketdata"
	"TokenWatch/internal/services/notify"
	"TokenWatch/internal/services/security"
	"TokenWatch/internal/usecase"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/cache"
	pkgch "TokenWatch/pkg/clickhouse"
	"TokenWatch/pkg/config"
	xhttp "TokenWatch/pkg/http"
	pkgkafka "TokenWatch/pkg/kafka"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/queue"
	"TokenWatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideRedisClient creates and pings the shared Redis client.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideBus creates the in-process event bus with drop accounting.
func ProvideBus(rec *metrics.Recorder) *bus.Bus {
	return bus.New(bus.WithDropCallback(rec.RecordBusDrop))
}

// ProvideMarketStore creates the rolling candle store.
func ProvideMarketStore() *market.Store {
	return market.NewStore(market.DefaultCapacity)
}

// ProvideEngine creates the signal engine from configured thresholds.
func ProvideEngine(cfg *config.Config) *engine.Engine {
	return engine.New(models.EngineParams{
		PumpJumpPct:   cfg.Engine.PumpJumpPct,
		DumpDropPct:   cfg.Engine.DumpDropPct,
		RSIOverbought: cfg.Engine.RSIOverbought,
		RSIOversold:   cfg.Engine.RSIOversold,
	})
}

// ProvideAlertStore creates the in-memory alert registry.
func ProvideAlertStore() *alerts.Store {
	return alerts.NewStore(alerts.DefaultCapacity)
}

// ProvideVerdictCache creates the layered cache used for provider verdicts.
func ProvideVerdictCache(cfg *config.Config) (cache.Service, error) {
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Queue.Namespace),
	)
	if err != nil {
		return nil, fmt.Errorf("verdict cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideSecurity creates the token-safety provider client.
func ProvideSecurity(cfg *config.Config, log *logger.Logger, verdicts cache.Service) *security.Service {
	return security.New(cfg.Providers.RugcheckURL, cfg.Providers.SnifferURL, cfg.Providers.Timeout, log,
		security.WithCache(verdicts),
	)
}

// ProvideNotifier creates the webhook notifier.
func ProvideNotifier(cfg *config.Config, log *logger.Logger) *notify.Notifier {
	return notify.New(cfg.Notifier.BaseURL, cfg.Notifier.Timeout, log)
}

// ProvideAdvice creates the advice proxy client.
func ProvideAdvice(cfg *config.Config) *advice.Client {
	return advice.New(cfg.Advice.URL, cfg.Advice.APIKey, 30*time.Second)
}

// ProvideDetectors creates the candle-close detectors.
func ProvideDetectors(cfg *config.Config) *usecase.Detectors {
	return usecase.NewDetectors(cfg.Ingest.WhaleLookback, cfg.Ingest.WhaleVolFactor)
}

// ProvideMarketStream creates the exchange WebSocket stream.
func ProvideMarketStream(cfg *config.Config) domrepo.MarketStream {
	return marketdata.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Ingest.Tickers,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideIngestor creates the candle ingestor.
func ProvideIngestor(
	stream domrepo.MarketStream,
	store *market.Store,
	rec *metrics.Recorder,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	return usecase.NewIngestor(stream, store, rec, log, cfg.Ingest.Interval)
}

// ProvideWorkerQueue creates the Redis worker pool with all jobs attached.
func ProvideWorkerQueue(
	cfg *config.Config,
	log *logger.Logger,
	client *redis.Client,
	rec *metrics.Recorder,
	parserRun *usecase.ParserRunJob,
	social *usecase.SocialIntakeJob,
	chain *usecase.ChainEventsJob,
	whales *usecase.WhalesScanJob,
	signals *usecase.SignalsComputeJob,
) *queue.RedisQueue {
	rq := queue.NewRedisQueue(log,
		&queue.Config{
			Workers:    cfg.Queue.Workers,
			RetryLimit: cfg.Queue.RetryLimit,
			RetryDelay: cfg.Queue.RetryDelay,
			PopTimeout: cfg.Queue.PopTimeout,
		},
		client,
		queue.WithKeyPrefix(cfg.Queue.Namespace+":worker"),
		queue.WithStats(rec),
	)
	rq.RegisterJobs([]queue.Job{parserRun, social, chain, whales, signals})
	return rq
}

// ProvideBridge creates the source-list bridge and binds every intake list
// to its worker queue.
func ProvideBridge(
	cfg *config.Config,
	log *logger.Logger,
	client *redis.Client,
	rq *queue.RedisQueue,
	rec *metrics.Recorder,
) *queue.Bridge {
	b := queue.NewBridge(log, client, rq,
		queue.WithNamespace(cfg.Queue.Namespace),
		queue.WithPopTimeout(cfg.Queue.PopTimeout),
		queue.WithErrorDelay(cfg.Queue.BridgeDelay),
		queue.WithBridgeStats(rec),
	)
	b.Register("parser:run", usecase.QueueParserRun)
	b.Register("social:intake", usecase.QueueSocialIntake)
	b.Register("chain:events", usecase.QueueChainEvents)
	b.Register("whales:scan", usecase.QueueWhalesScan)
	b.Register("signals:compute", usecase.QueueSignals)
	return b
}

// ProvideParserRunJob creates the token safety gate job.
func ProvideParserRunJob(
	sec *security.Service,
	b *bus.Bus,
	store *alerts.Store,
	n *notify.Notifier,
	rec *metrics.Recorder,
	log *logger.Logger,
) *usecase.ParserRunJob {
	return usecase.NewParserRunJob(sec, b, store, n, rec, log)
}

// ProvideSocialIntakeJob creates the social mention normalizer job.
func ProvideSocialIntakeJob(b *bus.Bus, rec *metrics.Recorder, log *logger.Logger) *usecase.SocialIntakeJob {
	return usecase.NewSocialIntakeJob(b, rec, log)
}

// ProvideChainEventsJob creates the chain event job.
func ProvideChainEventsJob(
	cfg *config.Config,
	b *bus.Bus,
	store *alerts.Store,
	n *notify.Notifier,
	rec *metrics.Recorder,
	log *logger.Logger,
) *usecase.ChainEventsJob {
	return usecase.NewChainEventsJob(b, store, n, rec, log, cfg.Providers.WhaleMinSOL)
}

// ProvideWhalesScanJob creates the whale scan job.
func ProvideWhalesScanJob(
	cfg *config.Config,
	client *redis.Client,
	store *market.Store,
	det *usecase.Detectors,
	rec *metrics.Recorder,
	log *logger.Logger,
) *usecase.WhalesScanJob {
	return usecase.NewWhalesScanJob(client, store, det, rec, log, cfg.Queue.Namespace, cfg.Providers.WhalesResultTTL, cfg.Ingest.Interval)
}

// ProvideSignalsComputeJob creates the engine scan job.
func ProvideSignalsComputeJob(
	eng *engine.Engine,
	store *market.Store,
	b *bus.Bus,
	rec *metrics.Recorder,
	log *logger.Logger,
) *usecase.SignalsComputeJob {
	return usecase.NewSignalsComputeJob(eng, store, b, rec, log)
}

// ProvideFirehose creates the optional Kafka signal firehose. Returns nil
// when no brokers are configured.
func ProvideFirehose(cfg *config.Config) (domrepo.SignalPublisher, error) {
	if len(cfg.Export.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Export.Kafka.Brokers),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	topic := cfg.Export.Kafka.Topic
	if topic == "" {
		topic = "tokenwatch.signals"
	}
	return internalrepo.NewKafkaFirehose(producer, topic), nil
}

// ProvideSignalSink creates the optional ClickHouse history sink. Returns
// nil when no host is configured.
func ProvideSignalSink(cfg *config.Config) (domrepo.SignalSink, error) {
	if cfg.Export.ClickHouse.Host == "" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Export.ClickHouse.Host),
		pkgch.WithPort(cfg.Export.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Export.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Export.ClickHouse.User, cfg.Export.ClickHouse.Password),
		pkgch.WithDialTimeout(cfg.Export.ClickHouse.DialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return internalrepo.NewClickHouseSignalSink(client), nil
}

// ProvideExporter creates the bus-to-backends exporter.
func ProvideExporter(
	b *bus.Bus,
	pub domrepo.SignalPublisher,
	sink domrepo.SignalSink,
	rec *metrics.Recorder,
	log *logger.Logger,
) *usecase.Exporter {
	return usecase.NewExporter(b, pub, sink, rec, log)
}

// ProvideHTTPHandler bundles all route handlers.
func ProvideHTTPHandler(
	cfg *config.Config,
	log *logger.Logger,
	eng *engine.Engine,
	store *market.Store,
	b *bus.Bus,
	adviceClient *advice.Client,
	whales *usecase.WhalesScanJob,
	sink domrepo.SignalSink,
	rec *metrics.Recorder,
	alertStore *alerts.Store,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewPipelineHandler(log, eng, store, b, adviceClient, whales, sink, rec, cfg.Environment, cfg.Ingest.Assets),
		api.NewAlertsHandler(alertStore),
	}
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	client *redis.Client,
	ingestor *usecase.Ingestor,
	bridge *queue.Bridge,
	workers *queue.RedisQueue,
	exporter *usecase.Exporter,
	handler xhttp.Handler,
	ingestHook usecase.CandleFunc,
) *server.App {
	ingestor.OnCandle(ingestHook)
	return server.New(cfg, log, client, ingestor, bridge, workers, exporter, handler)
}

// ProvideCandleHook wires candle closes back into the pipeline: each closed
// candle triggers a signal scan and runs the detectors.
func ProvideCandleHook(
	rq *queue.RedisQueue,
	store *market.Store,
	det *usecase.Detectors,
	b *bus.Bus,
	rec *metrics.Recorder,
	log *logger.Logger,
) usecase.CandleFunc {
	return func(ctx context.Context, asset string, c models.Candle) {
		for _, s := range det.Detect(asset, store.Window(asset)) {
			rec.RecordSignal(s.Kind)
			b.Publish(s)
		}
		payload := usecase.SignalsComputePayload{Asset: asset}
		id := fmt.Sprintf("%s-%d", asset, c.T)
		if err := rq.Submit(ctx, usecase.QueueSignals, "signals:compute", payload, id); err != nil {
			log.Warn("signal scan enqueue failed", logger.String("asset", asset), logger.Error(err))
		}
	}
}
