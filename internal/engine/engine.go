package engine

import (
	"math"

	"TokenWatch/internal/domain/models"
)

const (
	rsiPeriod  = 14
	emaPeriod  = 20
	smaPeriod  = 50
	bollPeriod = 20

	minCandles    = 30
	volSpikeRatio = 2.5
)

// Engine derives market-event signals from a candle window. It is stateless
// and safe for concurrent use.
type Engine struct {
	params models.EngineParams
}

func New(params models.EngineParams) *Engine {
	return &Engine{params: params.Normalize()}
}

// Params returns the engine's effective thresholds.
func (e *Engine) Params() models.EngineParams {
	return e.params
}

// Compute scans the candle window and returns every signal it finds, oldest
// first. Windows shorter than the indicator warm-up produce no signals.
func (e *Engine) Compute(asset string, candles []models.Candle) []models.Signal {
	return e.ComputeWith(asset, candles, e.params)
}

// ComputeWith runs a scan with per-call threshold overrides.
func (e *Engine) ComputeWith(asset string, candles []models.Candle, params models.EngineParams) []models.Signal {
	params = params.Normalize()
	if len(candles) < minCandles {
		return nil
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.C
	}

	rsi := RSI(closes, rsiPeriod)
	ema := EMA(closes, emaPeriod)
	sma := SMA(closes, smaPeriod)
	bands := Bollinger(closes, bollPeriod, 2)

	rsiOff := len(closes) - len(rsi)
	emaOff := len(closes) - len(ema)
	smaOff := len(closes) - len(sma)
	bandOff := len(closes) - len(bands)

	var signals []models.Signal
	for i := 1; i < len(candles); i++ {
		c := candles[i]
		prev := candles[i-1]
		if prev.C == 0 {
			continue
		}
		pct := (c.C - prev.C) / prev.C * 100
		volSpike := prev.V > 0 && c.V > volSpikeRatio*prev.V

		meta := map[string]interface{}{
			"pct":      pct,
			"volSpike": volSpike,
		}
		r, haveRSI := at(rsi, rsiOff, i)
		if haveRSI {
			meta["rsi"] = r
		}

		if haveRSI {
			switch {
			case pct >= params.PumpJumpPct && r > params.RSIOverbought-5:
				signals = append(signals, models.Signal{
					Kind:     models.SignalPump,
					T:        c.T,
					Asset:    asset,
					Price:    c.C,
					Strength: math.Min(1, pct/10),
					Meta:     meta,
				})
			case pct <= -params.DumpDropPct && r < params.RSIOversold+5:
				signals = append(signals, models.Signal{
					Kind:     models.SignalDump,
					T:        c.T,
					Asset:    asset,
					Price:    c.C,
					Strength: math.Min(1, -pct/10),
					Meta:     meta,
				})
			}
		}

		eNow, okE := at(ema, emaOff, i)
		sNow, okS := at(sma, smaOff, i)
		ePrev, okEP := at(ema, emaOff, i-1)
		sPrev, okSP := at(sma, smaOff, i-1)
		if okE && okS && okEP && okSP {
			if ePrev <= sPrev && eNow > sNow {
				signals = append(signals, models.Signal{
					Kind: models.SignalEntry, T: c.T, Asset: asset,
					Price: c.C, Strength: 0.6, Meta: meta,
				})
			} else if ePrev >= sPrev && eNow < sNow {
				signals = append(signals, models.Signal{
					Kind: models.SignalExit, T: c.T, Asset: asset,
					Price: c.C, Strength: 0.6, Meta: meta,
				})
			}
		}

		if bi := i - bandOff; bi >= 0 && bi < len(bands) {
			b := bands[bi]
			side := ""
			if c.C <= b.Lower {
				side = "lower"
			} else if c.C >= b.Upper {
				side = "upper"
			}
			if side != "" {
				pm := map[string]interface{}{
					"pct":      pct,
					"volSpike": volSpike,
					"band":     side,
				}
				if haveRSI {
					pm["rsi"] = r
				}
				signals = append(signals, models.Signal{
					Kind: models.SignalPattern, T: c.T, Asset: asset,
					Price: c.C, Strength: 0.4, Meta: pm,
				})
			}
		}
	}
	return signals
}

func at(series []float64, offset, i int) (float64, bool) {
	idx := i - offset
	if idx < 0 || idx >= len(series) {
		return 0, false
	}
	return series[idx], true
}
