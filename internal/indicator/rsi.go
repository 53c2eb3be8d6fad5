package indicator

import (
	"math"

	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// RSI is the 14-period relative strength index.
func RSI(w []model.Bar) float64 { return RSIn(w, RSIPeriods) }

// RSIn is the relative strength index over length periods: the EMA of gains
// over the EMA of losses across 2*length bar-to-bar deltas, mapped to 0..100.
// A window with no losses reads 100, one with no gains reads 0.
func RSIn(w []model.Bar, length int) float64 {
	rs := AverageGain(w, length) / AverageLoss(w, length)
	return numerics.LockRange(0, 100-100/(1+rs), 100)
}

// AverageGain is the EMA of the positive close-to-close moves.
func AverageGain(w []model.Bar, length int) float64 {
	return numerics.EMA(deltas(w, length, func(d float64) float64 { return math.Max(0, d) }), length)
}

// AverageLoss is the EMA of the magnitude of negative close-to-close moves.
func AverageLoss(w []model.Bar, length int) float64 {
	return numerics.EMA(deltas(w, length, func(d float64) float64 { return math.Abs(math.Min(0, d)) }), length)
}

func deltas(w []model.Bar, length int, f func(float64) float64) []float64 {
	bars := last(w, 2*length+1, "rsi")
	out := make([]float64, 2*length)
	for i := range out {
		out[i] = f(bars[i+1].Close - bars[i].Close)
	}
	return out
}

// StochRSI places the current RSI inside the range of the last 14 RSI
// readings, clamped to [0, 1].
func StochRSI(w []model.Bar) float64 {
	rsi := RSI(w)
	lo, hi := LowestRSI(w), HighestRSI(w)
	diff := hi - lo
	if diff == 0 {
		diff = math.SmallestNonzeroFloat64
	}
	return numerics.LockRange(0, (rsi-lo)/diff, 1)
}

// LowestRSI is the minimum RSI over the last 14 truncations of w, capped at 100.
func LowestRSI(w []model.Bar) float64 {
	lo := 100.0
	for i := 0; i < StochRSIPeriods; i++ {
		lo = math.Min(RSI(trunc(w, i, "stoch rsi")), lo)
	}
	return lo
}

// HighestRSI is the maximum RSI over the last 14 truncations of w, floored at 0.
func HighestRSI(w []model.Bar) float64 {
	hi := 0.0
	for i := 0; i < StochRSIPeriods; i++ {
		hi = math.Max(RSI(trunc(w, i, "stoch rsi")), hi)
	}
	return hi
}

// RSINextSellsIndex returns the first index after start whose RSI exceeds sell.
func RSINextSellsIndex(bars []model.Bar, start int, sell float64) int {
	return ScanForward(bars, start, func(w []model.Bar) bool {
		return RSI(w) > sell
	})
}
