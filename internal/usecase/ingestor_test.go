package usecase

import (
	"context"
	"testing"
	"time"

	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/market"
	"TokenWatch/pkg/logger"
)

type fakeStream struct {
	trades    chan *models.Trade
	errs      chan error
	connected bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{trades: make(chan *models.Trade, 64), errs: make(chan error, 1)}
}

func (f *fakeStream) Connect(context.Context) error   { f.connected = true; return nil }
func (f *fakeStream) Subscribe(context.Context) error { return nil }
func (f *fakeStream) Read(context.Context) (<-chan *models.Trade, <-chan error) {
	return f.trades, f.errs
}
func (f *fakeStream) Reconnect(ctx context.Context) error { return f.Connect(ctx) }
func (f *fakeStream) Close() error                        { f.connected = false; return nil }
func (f *fakeStream) IsConnected() bool                   { return f.connected }

func TestIngestorRollsCandles(t *testing.T) {
	store := market.NewStore(10)
	in := NewIngestor(newFakeStream(), store, nil, logger.Nop(), time.Minute)

	in.ingest(&models.Trade{Symbol: "BINANCE:SOLUSDT", Price: 100, Volume: 5, T: 1000})
	in.ingest(&models.Trade{Symbol: "BINANCE:SOLUSDT", Price: 110, Volume: 3, T: 2000})
	in.ingest(&models.Trade{Symbol: "BINANCE:SOLUSDT", Price: 95, Volume: 2, T: 3000})
	in.flush(context.Background())

	w := store.Window("SOL")
	if len(w) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(w))
	}
	c := w[0]
	if c.O != 100 || c.H != 110 || c.L != 95 || c.C != 95 {
		t.Fatalf("bad OHLC: %+v", c)
	}
	if c.V != 10 {
		t.Fatalf("volume = %v, want 10", c.V)
	}
	if c.T != 1000 {
		t.Fatalf("candle open time = %d, want first trade", c.T)
	}
}

func TestIngestorEmptyIntervalNoCandle(t *testing.T) {
	store := market.NewStore(10)
	in := NewIngestor(newFakeStream(), store, nil, logger.Nop(), time.Minute)

	in.ingest(&models.Trade{Symbol: "SOLUSDT", Price: 100, Volume: 1, T: 1})
	in.flush(context.Background())
	in.flush(context.Background()) // nothing traded since

	if n := store.Len("SOL"); n != 1 {
		t.Fatalf("expected 1 candle, got %d", n)
	}
}

func TestIngestorOnCandleHook(t *testing.T) {
	store := market.NewStore(10)
	in := NewIngestor(newFakeStream(), store, nil, logger.Nop(), time.Minute)

	var gotAsset string
	var gotCandle models.Candle
	in.OnCandle(func(_ context.Context, asset string, c models.Candle) {
		gotAsset = asset
		gotCandle = c
	})

	in.ingest(&models.Trade{Symbol: "ETHUSD", Price: 42, Volume: 1, T: 7})
	in.flush(context.Background())

	if gotAsset != "ETH" {
		t.Fatalf("hook asset = %q, want ETH", gotAsset)
	}
	if gotCandle.C != 42 {
		t.Fatalf("hook candle = %+v", gotCandle)
	}
	if store.Len("ETH") != 1 {
		t.Fatal("hook must run after the store append")
	}
}

func TestIngestorStartStop(t *testing.T) {
	fs := newFakeStream()
	store := market.NewStore(10)
	in := NewIngestor(fs, store, nil, logger.Nop(), 20*time.Millisecond)

	done := make(chan struct{})
	in.OnCandle(func(context.Context, string, models.Candle) {
		select {
		case <-done:
		default:
			close(done)
		}
	})

	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !in.IsConnected() {
		t.Fatal("expected connected stream")
	}
	fs.trades <- &models.Trade{Symbol: "SOLUSDT", Price: 100, Volume: 1, T: 1}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("candle never closed")
	}
	if err := in.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if in.IsConnected() {
		t.Fatal("stream should be closed after stop")
	}
}

func TestNormalizeAsset(t *testing.T) {
	cases := map[string]string{
		"BINANCE:SOLUSDT": "SOL",
		"SOLUSDT":         "SOL",
		"ETHUSD":          "ETH",
		"BONKUSDC":        "BONK",
		"USDT":            "USDT",
		"XMR":             "XMR",
	}
	for in, want := range cases {
		if got := normalizeAsset(in); got != want {
			t.Fatalf("normalizeAsset(%q) = %q, want %q", in, got, want)
		}
	}
}
