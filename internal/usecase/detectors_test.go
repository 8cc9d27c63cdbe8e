package usecase

import (
	"testing"

	"TokenWatch/internal/domain/models"
)

func volCandles(n int, vol float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{T: int64(i), C: 100, V: vol}
	}
	return out
}

func TestListingFiresOnce(t *testing.T) {
	d := NewDetectors(30, 3)
	w := volCandles(1, 10)

	first := d.Detect("NEW", w)
	if len(first) != 1 || first[0].Kind != models.SignalListing {
		t.Fatalf("expected listing signal, got %+v", first)
	}

	if again := d.Detect("NEW", volCandles(2, 10)); len(again) != 0 {
		t.Fatalf("listing must fire once per asset, got %+v", again)
	}
}

func TestWhaleVolumeSpike(t *testing.T) {
	d := NewDetectors(30, 3)
	w := volCandles(31, 100)
	d.Detect("SOL", w[:1]) // consume the listing signal
	w[30].V = 500          // 5x the trailing average

	var whale *models.Signal
	for _, s := range d.Detect("SOL", w) {
		if s.Kind == models.SignalWhaleIn {
			whale = &s
			break
		}
	}
	if whale == nil {
		t.Fatal("expected whale signal")
	}
	if ratio, _ := whale.Meta["ratio"].(float64); ratio < 4.9 || ratio > 5.1 {
		t.Fatalf("ratio = %v, want ~5", ratio)
	}
	if whale.Strength != 0.5 {
		t.Fatalf("strength = %v, want 0.5", whale.Strength)
	}
}

func TestWhaleVolumeNeedsLookback(t *testing.T) {
	d := NewDetectors(30, 3)
	w := volCandles(20, 100)
	d.Detect("SOL", w[:1])
	w[19].V = 1000

	for _, s := range d.Detect("SOL", w) {
		if s.Kind == models.SignalWhaleIn {
			t.Fatal("whale detector must wait for a full lookback")
		}
	}
}

func TestWhaleVolumeNormalBarQuiet(t *testing.T) {
	d := NewDetectors(30, 3)
	w := volCandles(40, 100)
	d.Detect("SOL", w[:1])
	w[39].V = 150 // above average but under the factor

	for _, s := range d.Detect("SOL", w) {
		if s.Kind == models.SignalWhaleIn {
			t.Fatal("1.5x volume must not trigger at factor 3")
		}
	}
}
