package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/risk"
	"TokenWatch/internal/services/notify"
	"TokenWatch/internal/services/security"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/queue"
)

const QueueParserRun = "parser-run"

// ParserRunPayload asks for a full safety evaluation of one token.
type ParserRunPayload struct {
	Mint   string `json:"mint"`
	Symbol string `json:"symbol,omitempty"`
}

// ParserRunJob runs the token safety gate: both providers are queried, the
// verdicts folded into one risk summary, and a clean token gets a simulated
// buy. Flagged tokens raise an alert instead.
type ParserRunJob struct {
	security *security.Service
	bus      *bus.Bus
	alerts   *alerts.Store
	notify   *notify.Notifier
	metrics  *metrics.Recorder
	log      *logger.Logger
}

func NewParserRunJob(sec *security.Service, b *bus.Bus, store *alerts.Store, n *notify.Notifier, rec *metrics.Recorder, log *logger.Logger) *ParserRunJob {
	return &ParserRunJob{security: sec, bus: b, alerts: store, notify: n, metrics: rec, log: log}
}

func (j *ParserRunJob) Name() string  { return "parser:run" }
func (j *ParserRunJob) Queue() string { return QueueParserRun }

func (j *ParserRunJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ParserRunPayload](payload)
	if err != nil {
		return fmt.Errorf("parser run payload: %w", err)
	}
	if p.Mint == "" {
		return fmt.Errorf("parser run: mint required")
	}

	rug, trust := j.security.Check(ctx, p.Mint)
	summary := risk.Summarize(rug, trust)

	asset := p.Symbol
	if asset == "" {
		asset = p.Mint
	}
	now := time.Now().UnixMilli()

	j.publish(models.Signal{
		Kind:  models.SignalParserJob,
		T:     now,
		Asset: asset,
		Meta: map[string]interface{}{
			"mint":     p.Mint,
			"severity": summary.Severity,
			"issues":   summary.Issues,
			"rug":      rug,
			"trust":    trust,
		},
	})

	if risk.Flagged(summary) {
		a := j.alerts.Create(
			fmt.Sprintf("token %s flagged", asset),
			summary.Severity,
			"parser-run",
			fmt.Sprintf("%d issue(s): %v", len(summary.Issues), summary.Issues),
			map[string]interface{}{"mint": p.Mint, "rug": rug, "trust": trust},
		)
		j.notify.PostAlert(ctx, a)
		j.log.Info("token flagged, trade skipped",
			logger.String("mint", p.Mint),
			logger.String("severity", summary.Severity),
		)
		return nil
	}

	trade := map[string]interface{}{
		"id":    uuid.NewString(),
		"mint":  p.Mint,
		"asset": asset,
		"side":  "buy",
		"mode":  "simulated",
		"t":     now,
	}
	j.publish(models.Signal{
		Kind:     models.SignalTradeSimulated,
		T:        now,
		Asset:    asset,
		Strength: 0.5,
		Meta:     trade,
	})
	j.notify.PostTradeConfirm(ctx, trade)
	j.log.Info("simulated trade placed", logger.String("mint", p.Mint), logger.String("asset", asset))
	return nil
}

func (j *ParserRunJob) publish(s models.Signal) {
	j.metrics.RecordSignal(s.Kind)
	j.bus.Publish(s)
}
