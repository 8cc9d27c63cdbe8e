package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TokenWatch/pkg/retry"
)

// Submitter hands a payload to a named worker queue. Implemented by
// RedisQueue; the bridge depends on this interface so tests can fake it.
type Submitter interface {
	Submit(ctx context.Context, queue, msgType string, payload interface{}, id string) error
}

// Config contains worker queue configuration.
type Config struct {
	Workers    int           // workers per queue
	RetryLimit int           // maximum total attempts per job
	RetryDelay time.Duration // base delay for exponential backoff
	PopTimeout time.Duration // bounded blocking-pop wait
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.PopTimeout <= 0 {
		c.PopTimeout = time.Second
	}
}

// Policy returns the retry policy implied by the config.
func (c *Config) Policy() retry.Policy {
	return retry.Policy{MaxAttempts: c.RetryLimit, BaseDelay: c.RetryDelay, Multiplier: 2}
}

// Message is one delivery inside a worker queue. Type carries the source
// binding name; Payload is the producer's data.
type Message struct {
	ID        string      `json:"id"`
	Queue     string      `json:"queue"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"data"`
	Attempts  int         `json:"attempts"`
	Timestamp time.Time   `json:"timestamp"`
}

// Envelope is the wire format producers append to the shared queue store:
// an optional external id plus an opaque payload. Identity for deduplication
// is (queue, id) when the id is present.
type Envelope struct {
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeEnvelope parses a raw queue item. When the item has no `payload`
// field the whole document is treated as the payload, matching what loose
// producers actually append.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Payload) == 0 {
		env.Payload = json.RawMessage(raw)
	}
	return env, nil
}

// Stats receives queue observability events. Satisfied by metrics.Recorder.
type Stats interface {
	RecordJob(queue, outcome string)
	RecordJobDuration(queue string, seconds float64)
}

type nopStats struct{}

func (nopStats) RecordJob(string, string)          {}
func (nopStats) RecordJobDuration(string, float64) {}

// ParsePayload converts a message payload into a typed struct.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case []byte:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}, []interface{}:
		jsonData, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}
