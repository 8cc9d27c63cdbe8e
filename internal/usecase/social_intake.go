package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TokenWatch/internal/domain/models"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/queue"
)

const QueueSocialIntake = "social-intake"

// SocialIntakePayload is one scored social mention.
type SocialIntakePayload struct {
	Source  string   `json:"source"`
	Text    string   `json:"text"`
	Symbols []string `json:"symbols,omitempty"`
	Score   float64  `json:"score,omitempty"`
	T       int64    `json:"t,omitempty"`
}

// SocialIntakeJob normalizes social mentions into signals, one per
// referenced symbol.
type SocialIntakeJob struct {
	bus     *bus.Bus
	metrics *metrics.Recorder
	log     *logger.Logger
}

func NewSocialIntakeJob(b *bus.Bus, rec *metrics.Recorder, log *logger.Logger) *SocialIntakeJob {
	return &SocialIntakeJob{bus: b, metrics: rec, log: log}
}

func (j *SocialIntakeJob) Name() string  { return "social:intake" }
func (j *SocialIntakeJob) Queue() string { return QueueSocialIntake }

func (j *SocialIntakeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[SocialIntakePayload](payload)
	if err != nil {
		return fmt.Errorf("social intake payload: %w", err)
	}
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("social intake: empty text")
	}

	t := p.T
	if t == 0 {
		t = time.Now().UnixMilli()
	}
	strength := p.Score
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}

	symbols := p.Symbols
	if len(symbols) == 0 {
		symbols = []string{""}
	}
	for _, sym := range symbols {
		j.metrics.RecordSignal(models.SignalSocial)
		j.bus.Publish(models.Signal{
			Kind:     models.SignalSocial,
			T:        t,
			Asset:    strings.ToUpper(sym),
			Strength: strength,
			Meta: map[string]interface{}{
				"source": p.Source,
				"text":   p.Text,
				"score":  p.Score,
			},
		})
	}
	j.metrics.RecordIngested("social")
	return nil
}
