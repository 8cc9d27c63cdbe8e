package queue

import "context"

// Job defines a worker queue job handler.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Queue returns the worker queue this job consumes.
	Queue() string

	// Handle processes one delivery of the job payload. Handlers must be
	// idempotent: at-least-once delivery can replay the same payload.
	Handle(ctx context.Context, payload interface{}) error
}
