package indicator

import (
	"math"

	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// TMF is the 21-period Twiggs Money Flow.
func TMF(w []model.Bar) float64 { return TMFn(w, TMFPeriods) }

// TMFn is Twiggs Money Flow: accumulation/distribution measured against the
// true range (prior close included), smoothed by EMA and divided by the EMA
// of volume. Result is clamped to [-1, 1]; a window with no usable range reads 0.
func TMFn(w []model.Bar, length int) float64 {
	size := 2 * length
	bars := last(w, size+1, "tmf")
	volume := make([]float64, size)
	ad := make([]float64, size)
	for i := range ad {
		prevClose := bars[i].Close
		b := bars[i+1]
		trh := math.Max(prevClose, b.High)
		trl := math.Min(prevClose, b.Low)
		volume[i] = b.Volume
		ad[i] = b.Volume * (((b.Close - trl) - (trh - b.Close)) / (trh - trl))
	}
	if !numerics.HealNaN(ad) {
		return 0
	}
	return numerics.LockRange(-1, numerics.EMA(ad, TMFPeriods)/numerics.EMA(volume, TMFPeriods), 1)
}

// TMFGraph is the TMF of each of the last periods truncations, oldest first.
func TMFGraph(w []model.Bar, periods int) []float64 {
	out := make([]float64, periods)
	for i := range out {
		out[periods-1-i] = TMF(trunc(w, i, "tmf graph"))
	}
	return out
}
