package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"TokenWatch/internal/domain/models"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
)

func TestSocialIntakeFansOutPerSymbol(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe(16)
	defer cancel()

	j := NewSocialIntakeJob(b, nil, logger.Nop())
	raw, _ := json.Marshal(SocialIntakePayload{
		Source:  "x",
		Text:    "sol and bonk going wild",
		Symbols: []string{"sol", "bonk"},
		Score:   0.8,
	})
	if err := j.Handle(context.Background(), json.RawMessage(raw)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	signals := drainSignals(events)
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Asset != "SOL" || signals[1].Asset != "BONK" {
		t.Fatalf("assets not uppercased: %v, %v", signals[0].Asset, signals[1].Asset)
	}
	if signals[0].Strength != 0.8 {
		t.Fatalf("strength = %v", signals[0].Strength)
	}
}

func TestSocialIntakeNoSymbols(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe(4)
	defer cancel()

	j := NewSocialIntakeJob(b, nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{"source":"x","text":"gm"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	signals := drainSignals(events)
	if len(signals) != 1 || signals[0].Kind != models.SignalSocial {
		t.Fatalf("expected one social signal, got %+v", signals)
	}
}

func TestSocialIntakeClampsScore(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe(4)
	defer cancel()

	j := NewSocialIntakeJob(b, nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{"source":"x","text":"moon","score":7}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if s := drainSignals(events); s[0].Strength != 1 {
		t.Fatalf("strength = %v, want clamped to 1", s[0].Strength)
	}
}

func TestSocialIntakeRejectsEmptyText(t *testing.T) {
	j := NewSocialIntakeJob(bus.New(), nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{"source":"x","text":"  "}`)); err == nil {
		t.Fatal("expected error for empty text")
	}
}
