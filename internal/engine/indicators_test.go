package engine

import (
	"math"
	"testing"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if !almost(got[i], want[i]) {
			t.Fatalf("sma[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSMAShortInput(t *testing.T) {
	if got := SMA([]float64{1, 2}, 3); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestEMASeedIsSMA(t *testing.T) {
	got := EMA([]float64{2, 4, 6, 8}, 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 values, got %d", len(got))
	}
	if !almost(got[0], 4) {
		t.Fatalf("seed = %v, want 4", got[0])
	}
	// k = 2/(3+1) = 0.5; next = (8-4)*0.5 + 4 = 6
	if !almost(got[1], 6) {
		t.Fatalf("ema[1] = %v, want 6", got[1])
	}
}

func TestRSIAllGains(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	got := RSI(values, 14)
	if len(got) != len(values)-14 {
		t.Fatalf("expected %d values, got %d", len(values)-14, len(got))
	}
	for i, v := range got {
		if v != 100 {
			t.Fatalf("rsi[%d] = %v, want 100 with no losses", i, v)
		}
	}
}

func TestRSIBounded(t *testing.T) {
	values := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.1,
		45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.0, 46.03}
	for _, v := range RSI(values, 14) {
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of range: %v", v)
		}
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 50
	}
	bands := Bollinger(values, 20, 2)
	if len(bands) != 6 {
		t.Fatalf("expected 6 bands, got %d", len(bands))
	}
	for _, b := range bands {
		if !almost(b.Upper, 50) || !almost(b.Middle, 50) || !almost(b.Lower, 50) {
			t.Fatalf("flat series should collapse bands: %+v", b)
		}
	}
}

func TestBollingerSpread(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	bands := Bollinger(values, 5, 2)
	if len(bands) != 1 {
		t.Fatalf("expected 1 band, got %d", len(bands))
	}
	b := bands[0]
	if !almost(b.Middle, 3) {
		t.Fatalf("middle = %v, want 3", b.Middle)
	}
	if b.Upper <= b.Middle || b.Lower >= b.Middle {
		t.Fatalf("bands not spread: %+v", b)
	}
}
