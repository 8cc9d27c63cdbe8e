package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/engine"
	"TokenWatch/internal/market"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
)

func TestSignalsComputePublishes(t *testing.T) {
	store := market.NewStore(300)
	for i := 0; i < 80; i++ {
		price := 100.0
		if i >= 50 {
			price = 108 // +8% jump at bar 50
		}
		store.Append("SOL", models.Candle{T: int64(i), C: price, V: 100})
	}

	b := bus.New()
	events, cancel := b.Subscribe(64)
	defer cancel()

	j := NewSignalsComputeJob(engine.New(models.DefaultEngineParams()), store, b, nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{"asset":"SOL"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var pump bool
	for _, s := range drainSignals(events) {
		if s.Kind == models.SignalPump && s.T == 50 {
			pump = true
		}
	}
	if !pump {
		t.Fatal("expected pump signal from stored window")
	}
}

func TestSignalsComputeShortWindowQuiet(t *testing.T) {
	store := market.NewStore(300)
	for i := 0; i < 10; i++ {
		store.Append("ETH", models.Candle{T: int64(i), C: 100, V: 1})
	}

	b := bus.New()
	events, cancel := b.Subscribe(8)
	defer cancel()

	j := NewSignalsComputeJob(engine.New(models.DefaultEngineParams()), store, b, nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{"asset":"ETH"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := drainSignals(events); len(got) != 0 {
		t.Fatalf("short window must be quiet, got %+v", got)
	}
}

func TestSignalsComputeRequiresAsset(t *testing.T) {
	j := NewSignalsComputeJob(engine.New(models.DefaultEngineParams()), market.NewStore(10), bus.New(), nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for missing asset")
	}
}
