// Package features derives statistical features from candle windows.
package features

import (
	"math"
	"time"

	"TokenWatch/internal/domain/models"
)

// LogReturns computes r_t = ln(C_t / C_{t-1}) over a candle window.
// The result has length len(candles)-1, or nil when the window is too
// short. Non-positive closes contribute a zero return.
func LogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].C
		cur := candles[i].C
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility from the
// trailing window of log returns. Returns 0 when there is not enough
// data for a sample variance.
func RealizedVolatility(returns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(returns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(returns) - window; i < len(returns); i++ {
		r := returns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// BarsPerYear converts a candle interval to the bar count used for
// annualization.
func BarsPerYear(interval time.Duration) float64 {
	if interval <= 0 {
		interval = time.Minute
	}
	const year = 365 * 24 * time.Hour
	return float64(year) / float64(interval)
}
