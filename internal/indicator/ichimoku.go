package indicator

import (
	"trading-featuresv1/internal/model"
)

// Ichimoku is the midpoint of the high-low range over the last length bars.
func Ichimoku(w []model.Bar, length int) float64 {
	bars := last(w, length, "ichimoku")
	return (High(bars) + Low(bars)) / 2
}

// IchimokuSignal is the 9-bar midpoint minus the 26-bar midpoint, relative to
// the 26-bar SMA of close. A zero SMA leaves the raw difference.
func IchimokuSignal(w []model.Bar) float64 {
	return IchimokuSignalN(w, IchimokuConversion, IchimokuBase)
}

// IchimokuSignalN is IchimokuSignal with custom conversion and base lengths.
func IchimokuSignalN(w []model.Bar, conversion, base int) float64 {
	diff := Ichimoku(w, conversion) - Ichimoku(w, base)
	sma := SMA(w, base)
	if sma == 0 {
		return diff
	}
	return diff / sma
}

// IchimokuSignalGraph is the signal of each of the last periods truncations, oldest first.
func IchimokuSignalGraph(w []model.Bar, periods int) []float64 {
	out := make([]float64, periods)
	for i := range out {
		out[periods-1-i] = IchimokuSignal(trunc(w, i, "ichimoku graph"))
	}
	return out
}
