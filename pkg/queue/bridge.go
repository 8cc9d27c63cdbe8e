package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TokenWatch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const malformedKeep = 1000

// Bridge moves job envelopes from the shared producer lists into the worker
// queues. One goroutine runs per registered (source, queue) binding, doing a
// bounded blocking pop so shutdown is always observed within one wait.
type Bridge struct {
	logger      *logger.Logger
	client      *redis.Client
	submitter   Submitter
	stats       Stats
	namespace   string
	popTimeout  time.Duration
	errorDelay  time.Duration
	bindings    map[string]string // source name -> target queue
	running     atomic.Bool
	wg          sync.WaitGroup
	cancelMu    sync.Mutex
	cancelLoops context.CancelFunc
}

// BridgeOption configures Bridge.
type BridgeOption func(*Bridge)

// WithNamespace sets the key namespace for source lists.
func WithNamespace(ns string) BridgeOption {
	return func(b *Bridge) {
		if ns != "" {
			b.namespace = ns
		}
	}
}

// WithPopTimeout sets the bounded blocking-pop wait.
func WithPopTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.popTimeout = d
		}
	}
}

// WithErrorDelay sets the pause after a transient store failure.
func WithErrorDelay(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.errorDelay = d
		}
	}
}

// WithBridgeStats attaches a metrics recorder.
func WithBridgeStats(s Stats) BridgeOption {
	return func(b *Bridge) {
		if s != nil {
			b.stats = s
		}
	}
}

// NewBridge creates a queue bridge feeding the given submitter.
func NewBridge(lgr *logger.Logger, client *redis.Client, submitter Submitter, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		logger:     lgr,
		client:     client,
		submitter:  submitter,
		stats:      nopStats{},
		namespace:  "tw",
		popTimeout: 5 * time.Second,
		errorDelay: time.Second,
		bindings:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register binds a producer source list to a target worker queue. Must be
// called before Start.
func (b *Bridge) Register(source, targetQueue string) {
	b.bindings[source] = targetQueue
}

// Start launches one consume loop per binding.
func (b *Bridge) Start() error {
	if !b.running.CompareAndSwap(false, true) {
		return fmt.Errorf("bridge already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancelMu.Lock()
	b.cancelLoops = cancel
	b.cancelMu.Unlock()

	for source, target := range b.bindings {
		b.wg.Add(1)
		go b.consumeLoop(ctx, source, target)
	}

	b.logger.Info("queue bridge started",
		logger.Int("bindings", len(b.bindings)),
		logger.Duration("pop_timeout", b.popTimeout))
	return nil
}

// Stop clears the running flag and waits for all loops to observe it.
func (b *Bridge) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}

	b.cancelMu.Lock()
	if b.cancelLoops != nil {
		b.cancelLoops()
	}
	b.cancelMu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		b.logger.Warn("timeout waiting for bridge loops", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		b.logger.Info("queue bridge stopped")
		return nil
	}
}

// Publish appends an envelope to a source list, preserving FIFO order for
// in-process producers.
func (b *Bridge) Publish(ctx context.Context, source string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.RPush(ctx, b.sourceKey(source), data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", source, err)
	}
	return nil
}

func (b *Bridge) consumeLoop(ctx context.Context, source, target string) {
	defer b.wg.Done()
	key := b.sourceKey(source)
	b.logger.Info("bridge loop started",
		logger.String("source", source),
		logger.String("queue", target))

	for b.running.Load() {
		result, err := b.client.BLPop(ctx, b.popTimeout, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || !b.running.Load() {
				return
			}
			b.logger.Error("bridge pop error",
				logger.String("source", source),
				logger.Error(err))
			b.sleep(ctx, b.errorDelay)
			continue
		}
		if len(result) < 2 {
			continue
		}

		raw := []byte(result[1])
		env, err := DecodeEnvelope(raw)
		if err != nil {
			// Malformed items are never retried; a capped dead-letter list
			// keeps the last few for operators to inspect.
			b.logger.Error("malformed envelope dropped",
				logger.String("source", source),
				logger.Error(err))
			b.stats.RecordJob(target, "malformed")
			b.recordMalformed(ctx, raw)
			continue
		}

		if err := b.submitter.Submit(ctx, target, source, env.Payload, env.ID); err != nil {
			if errors.Is(err, context.Canceled) || !b.running.Load() {
				return
			}
			b.logger.Error("bridge submit error",
				logger.String("source", source),
				logger.String("queue", target),
				logger.Error(err))
			b.sleep(ctx, b.errorDelay)
		}
	}
}

func (b *Bridge) recordMalformed(ctx context.Context, raw []byte) {
	key := fmt.Sprintf("%s:queue:malformed", b.namespace)
	pipe := b.client.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, malformedKeep-1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("record malformed envelope", logger.Error(err))
	}
}

func (b *Bridge) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (b *Bridge) sourceKey(source string) string {
	return fmt.Sprintf("%s:queue:%s", b.namespace, source)
}
