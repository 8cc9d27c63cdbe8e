package repository

import (
	"context"
	"time"

	"TokenWatch/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SignalPublisher fans signals out to an external firehose.
type SignalPublisher interface {
	Publish(ctx context.Context, s models.Signal) error
	Close() error
}

// SignalSink persists signal history for later analysis.
type SignalSink interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, s models.Signal) error
	StoreBatch(ctx context.Context, signals []models.Signal) error
	Query(ctx context.Context, asset string, from, to time.Time, limit int) ([]models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}
