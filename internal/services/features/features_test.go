package features

import (
	"math"
	"testing"
	"time"

	"TokenWatch/internal/domain/models"
)

func candlesAt(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{T: int64(i) * 60_000, C: c}
	}
	return out
}

func TestLogReturns(t *testing.T) {
	if got := LogReturns(candlesAt(100)); got != nil {
		t.Fatalf("single candle should yield nil, got %v", got)
	}

	rets := LogReturns(candlesAt(100, 110, 99))
	if len(rets) != 2 {
		t.Fatalf("len = %d, want 2", len(rets))
	}
	want := math.Log(110.0 / 100.0)
	if math.Abs(rets[0]-want) > 1e-12 {
		t.Fatalf("rets[0] = %v, want %v", rets[0], want)
	}
}

func TestLogReturnsSkipsBadCloses(t *testing.T) {
	rets := LogReturns(candlesAt(100, 0, 100))
	for i, r := range rets {
		if r != 0 {
			t.Fatalf("rets[%d] = %v, want 0 around non-positive close", i, r)
		}
	}
}

func TestRealizedVolatility(t *testing.T) {
	flat := []float64{0, 0, 0, 0}
	if got := RealizedVolatility(flat, 4, 525600); got != 0 {
		t.Fatalf("flat returns should have zero volatility, got %v", got)
	}

	moving := []float64{0.01, -0.01, 0.02, -0.02}
	if got := RealizedVolatility(moving, 4, 525600); got <= 0 {
		t.Fatalf("volatility = %v, want > 0", got)
	}

	if got := RealizedVolatility(moving, 10, 525600); got != 0 {
		t.Fatalf("short series should yield 0, got %v", got)
	}
}

func TestBarsPerYear(t *testing.T) {
	if got := BarsPerYear(time.Minute); got != 365*24*60 {
		t.Fatalf("minute bars = %v", got)
	}
	if got := BarsPerYear(0); got != 365*24*60 {
		t.Fatalf("default should be minute bars, got %v", got)
	}
}
