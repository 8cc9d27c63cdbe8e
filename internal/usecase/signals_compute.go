package usecase

import (
	"context"
	"fmt"

	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/engine"
	"TokenWatch/internal/market"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/queue"
)

const QueueSignals = "signals"

// SignalsComputePayload requests a signal scan over one asset's window.
type SignalsComputePayload struct {
	Asset   string               `json:"asset"`
	Options *models.EngineParams `json:"options,omitempty"`
}

// SignalsComputeJob runs the indicator engine over the stored candle window
// and publishes whatever it finds.
type SignalsComputeJob struct {
	engine  *engine.Engine
	store   *market.Store
	bus     *bus.Bus
	metrics *metrics.Recorder
	log     *logger.Logger
}

func NewSignalsComputeJob(eng *engine.Engine, store *market.Store, b *bus.Bus, rec *metrics.Recorder, log *logger.Logger) *SignalsComputeJob {
	return &SignalsComputeJob{engine: eng, store: store, bus: b, metrics: rec, log: log}
}

func (j *SignalsComputeJob) Name() string  { return "signals:compute" }
func (j *SignalsComputeJob) Queue() string { return QueueSignals }

func (j *SignalsComputeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[SignalsComputePayload](payload)
	if err != nil {
		return fmt.Errorf("signals compute payload: %w", err)
	}
	if p.Asset == "" {
		return fmt.Errorf("signals compute: asset required")
	}

	window := j.store.Window(p.Asset)
	var signals []models.Signal
	if p.Options != nil {
		signals = j.engine.ComputeWith(p.Asset, window, *p.Options)
	} else {
		signals = j.engine.Compute(p.Asset, window)
	}

	for _, s := range signals {
		j.metrics.RecordSignal(s.Kind)
		j.bus.Publish(s)
	}
	if len(signals) > 0 {
		j.log.Debug("signals computed",
			logger.String("asset", p.Asset),
			logger.Int("count", len(signals)),
		)
	}
	return nil
}
