package usecase

import (
	"context"
	"sync"
	"time"

	"TokenWatch/internal/domain/models"
	drepo "TokenWatch/internal/domain/repository"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
)

// Exporter drains the event bus into the optional export backends: a Kafka
// firehose and a ClickHouse history sink. Either side may be nil.
type Exporter struct {
	bus       *bus.Bus
	publisher drepo.SignalPublisher
	sink      drepo.SignalSink
	metrics   *metrics.Recorder
	log       *logger.Logger

	batchSize int
	flushTick time.Duration

	cancelSub func()
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewExporter(b *bus.Bus, pub drepo.SignalPublisher, sink drepo.SignalSink, rec *metrics.Recorder, log *logger.Logger) *Exporter {
	return &Exporter{
		bus:       b,
		publisher: pub,
		sink:      sink,
		metrics:   rec,
		log:       log,
		batchSize: 100,
		flushTick: 5 * time.Second,
	}
}

// Enabled reports whether any export backend is configured.
func (e *Exporter) Enabled() bool { return e.publisher != nil || e.sink != nil }

func (e *Exporter) Start(ctx context.Context) error {
	if !e.Enabled() {
		return nil
	}
	if e.sink != nil {
		if err := e.sink.Init(ctx); err != nil {
			return err
		}
	}

	events, cancelSub := e.bus.Subscribe(1024)
	e.cancelSub = cancelSub

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(1)
	go e.run(runCtx, events)
	return nil
}

func (e *Exporter) Stop() {
	if e.cancelSub != nil {
		e.cancelSub()
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

func (e *Exporter) run(ctx context.Context, events <-chan interface{}) {
	defer e.wg.Done()

	batch := make([]models.Signal, 0, e.batchSize)
	ticker := time.NewTicker(e.flushTick)
	defer ticker.Stop()

	flush := func() {
		if e.sink == nil || len(batch) == 0 {
			return
		}
		// own deadline so the final flush survives shutdown cancellation
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.sink.StoreBatch(flushCtx, batch); err != nil {
			e.metrics.RecordError("export_sink")
			e.log.Warn("signal sink batch failed", logger.Error(err), logger.Int("size", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case ev, ok := <-events:
			if !ok {
				flush()
				return
			}
			s, isSignal := ev.(models.Signal)
			if !isSignal {
				continue
			}
			if e.publisher != nil {
				if err := e.publisher.Publish(ctx, s); err != nil {
					e.metrics.RecordError("export_firehose")
					e.log.Warn("firehose publish failed", logger.Error(err))
				}
			}
			if e.sink != nil {
				batch = append(batch, s)
				if len(batch) >= e.batchSize {
					flush()
				}
			}
		}
	}
}
