package usecase

import (
	"sync"

	"TokenWatch/internal/domain/models"
)

// Detectors holds the candle-close pattern checks that run outside the
// indicator engine: volume-based whale entries and first-seen listings.
type Detectors struct {
	lookback  int
	volFactor float64

	mu   sync.Mutex
	seen map[string]bool
}

func NewDetectors(lookback int, volFactor float64) *Detectors {
	if lookback <= 0 {
		lookback = 30
	}
	if volFactor <= 0 {
		volFactor = 3
	}
	return &Detectors{
		lookback:  lookback,
		volFactor: volFactor,
		seen:      make(map[string]bool),
	}
}

// Detect inspects the asset's window after a candle close and returns any
// triggered signals. The last window entry is the candle that just closed.
func (d *Detectors) Detect(asset string, window []models.Candle) []models.Signal {
	var out []models.Signal

	if s, ok := d.listing(asset, window); ok {
		out = append(out, s)
	}
	if s, ok := d.whaleVolume(asset, window); ok {
		out = append(out, s)
	}
	return out
}

// listing fires once per asset, on its first closed candle.
func (d *Detectors) listing(asset string, window []models.Candle) (models.Signal, bool) {
	if len(window) == 0 {
		return models.Signal{}, false
	}
	d.mu.Lock()
	first := !d.seen[asset]
	d.seen[asset] = true
	d.mu.Unlock()
	if !first {
		return models.Signal{}, false
	}

	c := window[len(window)-1]
	return models.Signal{
		Kind:     models.SignalListing,
		T:        c.T,
		Asset:    asset,
		Price:    c.C,
		Strength: 0.5,
	}, true
}

// whaleVolume flags a closed candle whose volume dwarfs the trailing
// average over the lookback.
func (d *Detectors) whaleVolume(asset string, window []models.Candle) (models.Signal, bool) {
	if len(window) < d.lookback+1 {
		return models.Signal{}, false
	}
	tail := window[len(window)-1-d.lookback : len(window)-1]
	sum := 0.0
	for _, c := range tail {
		sum += c.V
	}
	avg := sum / float64(len(tail))
	if avg <= 0 {
		return models.Signal{}, false
	}

	c := window[len(window)-1]
	if c.V < d.volFactor*avg {
		return models.Signal{}, false
	}
	ratio := c.V / avg
	strength := ratio / 10
	if strength > 1 {
		strength = 1
	}
	return models.Signal{
		Kind:     models.SignalWhaleIn,
		T:        c.T,
		Asset:    asset,
		Price:    c.C,
		Strength: strength,
		Meta: map[string]interface{}{
			"volume":    c.V,
			"avgVolume": avg,
			"ratio":     ratio,
		},
	}, true
}
