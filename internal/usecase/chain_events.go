package usecase

import (
	"context"
	"fmt"
	"time"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/services/notify"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/queue"
)

const QueueChainEvents = "chain-events"

const lamportsPerSOL = 1_000_000_000

// ChainEventPayload is one on-chain transaction event, webhook shaped.
type ChainEventPayload struct {
	Type            string `json:"type"`
	Signature       string `json:"signature"`
	Timestamp       int64  `json:"timestamp,omitempty"`
	NativeTransfers []struct {
		Amount          int64  `json:"amount"` // lamports
		FromUserAccount string `json:"fromUserAccount"`
		ToUserAccount   string `json:"toUserAccount"`
	} `json:"nativeTransfers,omitempty"`
}

// ChainEventsJob turns raw chain events into signals and raises a whale
// alert when the moved amount clears the configured floor.
type ChainEventsJob struct {
	bus      *bus.Bus
	alerts   *alerts.Store
	notify   *notify.Notifier
	metrics  *metrics.Recorder
	log      *logger.Logger
	minWhale float64 // SOL
}

func NewChainEventsJob(b *bus.Bus, store *alerts.Store, n *notify.Notifier, rec *metrics.Recorder, log *logger.Logger, minWhaleSOL float64) *ChainEventsJob {
	if minWhaleSOL <= 0 {
		minWhaleSOL = 500
	}
	return &ChainEventsJob{bus: b, alerts: store, notify: n, metrics: rec, log: log, minWhale: minWhaleSOL}
}

func (j *ChainEventsJob) Name() string  { return "chain:events" }
func (j *ChainEventsJob) Queue() string { return QueueChainEvents }

func (j *ChainEventsJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ChainEventPayload](payload)
	if err != nil {
		return fmt.Errorf("chain event payload: %w", err)
	}
	if p.Signature == "" {
		return fmt.Errorf("chain event: signature required")
	}

	t := p.Timestamp
	if t == 0 {
		t = time.Now().UnixMilli()
	}

	var lamports int64
	for _, tr := range p.NativeTransfers {
		lamports += tr.Amount
	}
	sol := float64(lamports) / lamportsPerSOL

	j.metrics.RecordIngested("chain")
	j.metrics.RecordSignal(models.SignalChainEvent)
	j.bus.Publish(models.Signal{
		Kind:  models.SignalChainEvent,
		T:     t,
		Asset: "SOL",
		Meta: map[string]interface{}{
			"type":      p.Type,
			"signature": p.Signature,
			"sol":       sol,
		},
	})

	if sol < j.minWhale {
		return nil
	}

	strength := sol / (j.minWhale * 10)
	if strength > 1 {
		strength = 1
	}
	j.metrics.RecordSignal(models.SignalWhaleIn)
	j.bus.Publish(models.Signal{
		Kind:     models.SignalWhaleIn,
		T:        t,
		Asset:    "SOL",
		Strength: strength,
		Meta: map[string]interface{}{
			"signature": p.Signature,
			"sol":       sol,
		},
	})

	a := j.alerts.Create(
		fmt.Sprintf("whale transfer %.0f SOL", sol),
		models.SeverityWarn,
		"chain-events",
		fmt.Sprintf("tx %s moved %.2f SOL", p.Signature, sol),
		map[string]interface{}{"signature": p.Signature, "sol": sol},
	)
	j.notify.PostAlert(ctx, a)
	j.log.Info("whale transfer detected", logger.Float64("sol", sol), logger.String("signature", p.Signature))
	return nil
}
