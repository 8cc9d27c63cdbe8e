package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"TokenWatch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 30 * time.Minute

// RedisQueue runs a fixed pool of workers per registered queue on top of
// Redis lists, with scheduled retries in a sorted set and a dead-letter list
// for jobs that exhaust their attempts.
type RedisQueue struct {
	logger    *logger.Logger
	config    *Config
	client    *redis.Client
	jobs      map[string]Job // keyed by queue name
	stats     Stats
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	stopCh    chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	keyPrefix string
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets a custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// WithStats attaches a metrics recorder.
func WithStats(s Stats) RedisQueueOption {
	return func(r *RedisQueue) {
		if s != nil {
			r.stats = s
		}
	}
}

// NewRedisQueue creates a new Redis worker queue server.
func NewRedisQueue(lgr *logger.Logger, config *Config, client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())

	rq := &RedisQueue{
		logger:    lgr,
		config:    config,
		client:    client,
		jobs:      make(map[string]Job),
		stats:     nopStats{},
		stopCh:    make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		keyPrefix: "tw:worker",
	}

	for _, opt := range opts {
		opt(rq)
	}

	return rq
}

// RegisterJobs registers multiple jobs.
func (r *RedisQueue) RegisterJobs(jobs []Job) {
	for _, job := range jobs {
		r.RegisterJob(job)
	}
}

// RegisterJob registers the handler for one worker queue.
func (r *RedisQueue) RegisterJob(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.Queue()]; exists {
		r.logger.Warn("job already registered", logger.String("queue", job.Queue()))
		return
	}

	r.jobs[job.Queue()] = job
	r.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("queue", job.Queue()))
}

// Start launches the worker pools and the retry processor.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return fmt.Errorf("queue already running")
	}
	r.isRunning = true
	queues := make([]string, 0, len(r.jobs))
	for q := range r.jobs {
		queues = append(queues, q)
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
		return fmt.Errorf("redis ping: %w", err)
	}

	for _, q := range queues {
		for i := 0; i < r.config.Workers; i++ {
			r.wg.Add(1)
			go r.worker(q, i)
		}
	}

	r.wg.Add(1)
	go r.retryProcessor()

	r.logger.Info("worker queues started",
		logger.Int("queues", len(queues)),
		logger.Int("workers_per_queue", r.config.Workers),
		logger.String("addr", r.client.Options().Addr))

	return nil
}

// Stop gracefully stops all workers. Loops blocked in a bounded pop observe
// the stop within one pop timeout.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.logger.Info("stopping worker queues...")
	r.cancel()
	close(r.stopCh)
	r.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		r.logger.Info("worker queues stopped gracefully")
		return nil
	}
}

// Submit enqueues a payload for a named queue. When id is non-empty it is the
// job identity (queue, id): re-submitting the same identity while the dedup
// window is open is a no-op.
func (r *RedisQueue) Submit(ctx context.Context, queue, msgType string, payload interface{}, id string) error {
	r.mu.RLock()
	running := r.isRunning
	_, registered := r.jobs[queue]
	r.mu.RUnlock()

	if !running {
		return fmt.Errorf("queue not running")
	}
	if !registered {
		return fmt.Errorf("no job registered for queue: %s", queue)
	}

	if id != "" {
		ok, err := r.client.SetNX(ctx, r.dedupKey(queue, id), 1, dedupTTL).Result()
		if err != nil {
			return fmt.Errorf("dedup setnx: %w", err)
		}
		if !ok {
			r.stats.RecordJob(queue, "duplicate")
			r.logger.Debug("duplicate job skipped",
				logger.String("queue", queue),
				logger.String("id", id))
			return nil
		}
	} else {
		id = strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	msg := Message{
		ID:        id,
		Queue:     queue,
		Type:      msgType,
		Payload:   payload,
		Attempts:  0,
		Timestamp: time.Now(),
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := r.client.LPush(ctx, r.queueKey(queue), msgData).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}

	return nil
}

func (r *RedisQueue) worker(queue string, id int) {
	defer r.wg.Done()
	r.logger.Info("queue worker started",
		logger.String("queue", queue),
		logger.Int("worker_id", id))

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ctx.Done():
			return
		default:
			r.processNext(queue)
		}
	}
}

func (r *RedisQueue) processNext(queue string) {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.PopTimeout+time.Second)
	defer cancel()

	result, err := r.client.BRPop(ctx, r.config.PopTimeout, r.queueKey(queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Error("brpop error", logger.String("queue", queue), logger.Error(err))
		time.Sleep(time.Second)
		return
	}

	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		r.logger.Error("unmarshal message", logger.String("queue", queue), logger.Error(err))
		r.stats.RecordJob(queue, "malformed")
		return
	}
	if msg.Queue == "" {
		msg.Queue = queue
	}

	r.processMessage(msg)
}

func (r *RedisQueue) processMessage(msg Message) {
	r.mu.RLock()
	job, exists := r.jobs[msg.Queue]
	r.mu.RUnlock()
	if !exists {
		r.logger.Error("no job for queue",
			logger.String("queue", msg.Queue),
			logger.String("id", msg.ID))
		r.stats.RecordJob(msg.Queue, "malformed")
		return
	}

	payload := normalizePayload(msg.Payload)
	start := time.Now()
	err := job.Handle(r.ctx, payload)
	elapsed := time.Since(start)
	r.stats.RecordJobDuration(msg.Queue, elapsed.Seconds())

	if err == nil {
		r.stats.RecordJob(msg.Queue, "completed")
		return
	}
	if errors.Is(err, context.Canceled) {
		r.logger.Warn("job cancelled",
			logger.String("queue", msg.Queue),
			logger.String("id", msg.ID))
		return
	}
	r.handleProcessingError(msg, job, err)
}

// normalizePayload re-encodes decoded JSON maps as RawMessage so handlers can
// unmarshal into their own types via ParsePayload.
func normalizePayload(payload interface{}) interface{} {
	switch payload.(type) {
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(payload)
		if err != nil {
			return payload
		}
		return json.RawMessage(b)
	default:
		return payload
	}
}

func (r *RedisQueue) handleProcessingError(msg Message, job Job, err error) {
	attempt := msg.Attempts + 1
	r.logger.Error("job failed",
		logger.String("queue", msg.Queue),
		logger.String("id", msg.ID),
		logger.Int("attempt", attempt),
		logger.Error(err))

	policy := r.config.Policy()
	if policy.Allow(attempt) {
		msg.Attempts = attempt
		retryTime := time.Now().Add(policy.Delay(attempt))
		r.scheduleRetry(msg, retryTime)
		r.stats.RecordJob(msg.Queue, "retried")
		r.logger.Info("retry scheduled",
			logger.String("queue", msg.Queue),
			logger.String("id", msg.ID),
			logger.Int("attempt", msg.Attempts),
			logger.String("retry_at", retryTime.Format(time.RFC3339)))
		return
	}

	r.logger.Error("max attempts reached, dead-lettering",
		logger.String("queue", msg.Queue),
		logger.String("id", msg.ID))
	r.stats.RecordJob(msg.Queue, "dead_letter")
	r.moveToDeadLetter(msg)
}

func (r *RedisQueue) scheduleRetry(msg Message, retryTime time.Time) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal retry", logger.Error(err))
		return
	}

	err = r.client.ZAdd(context.Background(), r.retryKey(), redis.Z{
		Score:  float64(retryTime.Unix()),
		Member: msgData,
	}).Err()
	if err != nil {
		r.logger.Error("zadd retry", logger.Error(err))
	}
}

func (r *RedisQueue) moveToDeadLetter(msg Message) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal dlq", logger.Error(err))
		return
	}

	if err := r.client.LPush(context.Background(), r.deadLetterKey(), msgData).Err(); err != nil {
		r.logger.Error("lpush dlq", logger.Error(err))
	}
}

func (r *RedisQueue) retryProcessor() {
	defer r.wg.Done()
	r.logger.Info("retry processor started")

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.processDueRetries()
		}
	}
}

func (r *RedisQueue) processDueRetries() {
	now := float64(time.Now().Unix())

	result, err := r.client.ZRangeByScore(r.ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatFloat(now, 'f', 0, 64),
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Error("fetch due retries", logger.Error(err))
		return
	}

	for _, msgData := range result {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := json.Unmarshal([]byte(msgData), &msg); err != nil {
			// Unparsable retry entries are removed, never replayed.
			r.client.ZRem(r.ctx, r.retryKey(), msgData)
			r.logger.Error("drop malformed retry entry", logger.Error(err))
			continue
		}

		pipe := r.client.TxPipeline()
		pipe.ZRem(r.ctx, r.retryKey(), msgData)
		pipe.LPush(r.ctx, r.queueKey(msg.Queue), msgData)

		if _, err := pipe.Exec(r.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Error("requeue retry", logger.Error(err))
		}
	}
}

func (r *RedisQueue) queueKey(queue string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, queue)
}

func (r *RedisQueue) retryKey() string {
	return fmt.Sprintf("%s:retry", r.keyPrefix)
}

func (r *RedisQueue) deadLetterKey() string {
	return fmt.Sprintf("%s:dlq", r.keyPrefix)
}

func (r *RedisQueue) dedupKey(queue, id string) string {
	return fmt.Sprintf("%s:jobid:%s:%s", r.keyPrefix, queue, id)
}
