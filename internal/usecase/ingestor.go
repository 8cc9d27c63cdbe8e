package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"TokenWatch/internal/domain/models"
	drepo "TokenWatch/internal/domain/repository"
	"TokenWatch/internal/market"
	"TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
)

// CandleFunc is invoked for every closed candle, after it has been appended
// to the store.
type CandleFunc func(ctx context.Context, asset string, c models.Candle)

// Ingestor consumes a trade stream and rolls trades into fixed-interval
// candles per asset.
type Ingestor struct {
	stream   drepo.MarketStream
	store    *market.Store
	metrics  *metrics.Recorder
	log      *logger.Logger
	interval time.Duration
	onCandle CandleFunc

	mu       sync.Mutex
	builders map[string]*candleBuilder

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type candleBuilder struct {
	open, high, low, close float64
	volume                 float64
	count                  int
	startMS                int64
}

func NewIngestor(stream drepo.MarketStream, store *market.Store, rec *metrics.Recorder, log *logger.Logger, interval time.Duration) *Ingestor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Ingestor{
		stream:   stream,
		store:    store,
		metrics:  rec,
		log:      log,
		interval: interval,
		builders: make(map[string]*candleBuilder),
	}
}

// OnCandle registers the closed-candle hook. Must be called before Start.
func (in *Ingestor) OnCandle(fn CandleFunc) { in.onCandle = fn }

// IsConnected reports the stream connection state.
func (in *Ingestor) IsConnected() bool { return in.stream.IsConnected() }

// Start connects the stream and begins rolling candles until Stop.
func (in *Ingestor) Start(ctx context.Context) error {
	if err := in.stream.Connect(ctx); err != nil {
		return err
	}
	if err := in.stream.Subscribe(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	in.cancel = cancel

	trades, errs := in.stream.Read(runCtx)
	in.wg.Add(2)
	go in.consume(runCtx, trades, errs)
	go in.flushLoop(runCtx)
	return nil
}

// Stop flushes open candles and closes the stream.
func (in *Ingestor) Stop() error {
	if in.cancel != nil {
		in.cancel()
	}
	in.wg.Wait()
	in.flush(context.Background())
	return in.stream.Close()
}

func (in *Ingestor) consume(ctx context.Context, trades <-chan *models.Trade, errs <-chan error) {
	defer in.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				in.metrics.RecordError("stream")
				in.log.Warn("market stream error, reconnecting", logger.Error(err))
				if rerr := in.stream.Reconnect(ctx); rerr != nil {
					in.log.Error("market stream reconnect failed", logger.Error(rerr))
					return
				}
				trades, errs = in.stream.Read(ctx)
			}
		case t := <-trades:
			if t == nil {
				continue
			}
			in.ingest(t)
		}
	}
}

func (in *Ingestor) ingest(t *models.Trade) {
	asset := normalizeAsset(t.Symbol)
	in.metrics.RecordIngested("stream")
	in.metrics.RecordLastPrice(asset, t.Price)

	in.mu.Lock()
	defer in.mu.Unlock()
	b := in.builders[asset]
	if b == nil {
		b = &candleBuilder{startMS: t.T}
		in.builders[asset] = b
	}
	if b.count == 0 {
		b.open = t.Price
		b.high = t.Price
		b.low = t.Price
		b.startMS = t.T
	}
	if t.Price > b.high {
		b.high = t.Price
	}
	if t.Price < b.low {
		b.low = t.Price
	}
	b.close = t.Price
	b.volume += t.Volume
	b.count++
}

func (in *Ingestor) flushLoop(ctx context.Context) {
	defer in.wg.Done()
	ticker := time.NewTicker(in.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in.flush(ctx)
		}
	}
}

// flush closes every open candle and hands each to the store and the hook.
func (in *Ingestor) flush(ctx context.Context) {
	in.mu.Lock()
	closed := make(map[string]models.Candle, len(in.builders))
	for asset, b := range in.builders {
		if b.count == 0 {
			continue
		}
		closed[asset] = models.Candle{
			T: b.startMS,
			O: b.open,
			H: b.high,
			L: b.low,
			C: b.close,
			V: b.volume,
		}
		b.count = 0
		b.volume = 0
	}
	in.mu.Unlock()

	for asset, c := range closed {
		in.store.Append(asset, c)
		if in.onCandle != nil {
			in.onCandle(ctx, asset, c)
		}
	}
}

// normalizeAsset strips exchange prefixes and quote suffixes so
// "BINANCE:SOLUSDT" and "SOLUSDT" both map to "SOL".
func normalizeAsset(symbol string) string {
	s := symbol
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	for _, quote := range []string{"USDT", "USDC", "USD"} {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return strings.TrimSuffix(s, quote)
		}
	}
	return s
}
