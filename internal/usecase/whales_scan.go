package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TokenWatch/internal/market"
	"TokenWatch/internal/services/features"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/queue"
)

const QueueWhalesScan = "whales-scan"

// volWindow is the trailing return count used for the report's
// realized volatility.
const volWindow = 20

// WhalesScanPayload narrows a scan to specific assets. Empty means all.
type WhalesScanPayload struct {
	Assets []string `json:"assets,omitempty"`
}

// WhaleScanEntry is the per-asset result of one scan.
type WhaleScanEntry struct {
	Asset      string  `json:"asset"`
	Candles    int     `json:"candles"`
	AvgVolume  float64 `json:"avgVolume"`
	MaxVolume  float64 `json:"maxVolume"`
	WhaleBars  int     `json:"whaleBars"`
	LastPrice  float64 `json:"lastPrice"`
	Volatility float64 `json:"volatility"`
}

// WhalesScanJob sweeps the candle windows for outsized volume bars and
// caches the report in Redis for the API to serve.
type WhalesScanJob struct {
	client    *redis.Client
	store     *market.Store
	detectors *Detectors
	metrics   *metrics.Recorder
	log       *logger.Logger
	prefix    string
	ttl       time.Duration
	interval  time.Duration
}

func NewWhalesScanJob(client *redis.Client, store *market.Store, det *Detectors, rec *metrics.Recorder, log *logger.Logger, prefix string, ttl, interval time.Duration) *WhalesScanJob {
	if prefix == "" {
		prefix = "tw"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &WhalesScanJob{client: client, store: store, detectors: det, metrics: rec, log: log, prefix: prefix, ttl: ttl, interval: interval}
}

func (j *WhalesScanJob) Name() string  { return "whales:scan" }
func (j *WhalesScanJob) Queue() string { return QueueWhalesScan }

func (j *WhalesScanJob) resultKey() string { return j.prefix + ":whales:result" }
func (j *WhalesScanJob) statusKey() string { return j.prefix + ":whales:status" }

func (j *WhalesScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[WhalesScanPayload](payload)
	if err != nil {
		return fmt.Errorf("whales scan payload: %w", err)
	}

	if err := j.client.Set(ctx, j.statusKey(), "running", j.ttl).Err(); err != nil {
		return fmt.Errorf("whales scan status: %w", err)
	}

	assets := p.Assets
	if len(assets) == 0 {
		assets = j.store.Assets()
	}

	report := make([]WhaleScanEntry, 0, len(assets))
	for _, asset := range assets {
		window := j.store.Window(asset)
		if len(window) == 0 {
			continue
		}
		entry := WhaleScanEntry{Asset: asset, Candles: len(window)}
		sum := 0.0
		for _, c := range window {
			sum += c.V
			if c.V > entry.MaxVolume {
				entry.MaxVolume = c.V
			}
		}
		entry.AvgVolume = sum / float64(len(window))
		entry.LastPrice = window[len(window)-1].C
		rets := features.LogReturns(window)
		w := volWindow
		if len(rets) < w {
			w = len(rets)
		}
		entry.Volatility = features.RealizedVolatility(rets, w, features.BarsPerYear(j.interval))
		if entry.AvgVolume > 0 {
			for _, c := range window {
				if c.V >= j.detectors.volFactor*entry.AvgVolume {
					entry.WhaleBars++
				}
			}
		}
		report = append(report, entry)
	}

	body, err := json.Marshal(map[string]interface{}{
		"scannedAt": time.Now().UTC().Format(time.RFC3339),
		"entries":   report,
	})
	if err != nil {
		return fmt.Errorf("whales scan marshal: %w", err)
	}

	pipe := j.client.TxPipeline()
	pipe.Set(ctx, j.resultKey(), body, j.ttl)
	pipe.Set(ctx, j.statusKey(), "done", j.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("whales scan store: %w", err)
	}

	j.log.Info("whale scan completed", logger.Int("assets", len(report)))
	return nil
}

// LastResult reads the cached scan report, if any.
func (j *WhalesScanJob) LastResult(ctx context.Context) (json.RawMessage, string, error) {
	status, err := j.client.Get(ctx, j.statusKey()).Result()
	if err == redis.Nil {
		return nil, "idle", nil
	}
	if err != nil {
		return nil, "", err
	}
	body, err := j.client.Get(ctx, j.resultKey()).Bytes()
	if err == redis.Nil {
		return nil, status, nil
	}
	if err != nil {
		return nil, "", err
	}
	return json.RawMessage(body), status, nil
}
