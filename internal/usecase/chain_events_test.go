package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/services/notify"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
)

func chainPayload(sig string, lamports int64) json.RawMessage {
	raw, _ := json.Marshal(map[string]interface{}{
		"type":      "TRANSFER",
		"signature": sig,
		"nativeTransfers": []map[string]interface{}{
			{"amount": lamports, "fromUserAccount": "a", "toUserAccount": "b"},
		},
	})
	return raw
}

func TestChainEventWhaleTransfer(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe(16)
	defer cancel()
	store := alerts.NewStore(10)

	j := NewChainEventsJob(b, store, notify.New("", time.Second, logger.Nop()), nil, logger.Nop(), 500)
	// 600 SOL
	if err := j.Handle(context.Background(), chainPayload("sig1", 600*lamportsPerSOL)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var chain, whale bool
	for _, s := range drainSignals(events) {
		switch s.Kind {
		case models.SignalChainEvent:
			chain = true
		case models.SignalWhaleIn:
			whale = true
			if sol, _ := s.Meta["sol"].(float64); sol != 600 {
				t.Fatalf("sol = %v, want 600", sol)
			}
		}
	}
	if !chain || !whale {
		t.Fatal("expected chain_event and whale_in signals")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one whale alert, got %d", store.Len())
	}
}

func TestChainEventSmallTransferQuiet(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe(16)
	defer cancel()
	store := alerts.NewStore(10)

	j := NewChainEventsJob(b, store, notify.New("", time.Second, logger.Nop()), nil, logger.Nop(), 500)
	if err := j.Handle(context.Background(), chainPayload("sig2", 10*lamportsPerSOL)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	for _, s := range drainSignals(events) {
		if s.Kind == models.SignalWhaleIn {
			t.Fatal("10 SOL must not trip the whale floor")
		}
	}
	if store.Len() != 0 {
		t.Fatal("no alert expected")
	}
}

func TestChainEventRequiresSignature(t *testing.T) {
	j := NewChainEventsJob(bus.New(), alerts.NewStore(10), notify.New("", time.Second, logger.Nop()), nil, logger.Nop(), 500)
	if err := j.Handle(context.Background(), json.RawMessage(`{"type":"TRANSFER"}`)); err == nil {
		t.Fatal("expected error for missing signature")
	}
}
