package indicator

import (
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// dpoLag and dpoLength place the detrending average 11 bars back over 21 bars.
const (
	dpoLag    = 11
	dpoLength = 21
)

// StandardisedDPO is the detrended price oscillator divided by its own
// lagged average: (close - SMA) / SMA, 0 when the SMA is 0.
func StandardisedDPO(w []model.Bar) float64 {
	n := len(w)
	price := last(w, 1, "dpo")[0].Close
	sma := numerics.SMA(Closes(span(w, n-dpoLag-dpoLength, n-dpoLag, "dpo")))
	if sma == 0 {
		return 0
	}
	return (price - sma) / sma
}

// Stochastic is the 14-bar stochastic oscillator, clamped to [0, 100].
// A flat range reads 50.
func Stochastic(w []model.Bar) float64 {
	bars := last(w, StochasticLength, "stochastic")
	lowest, highest := Low(bars), High(bars)
	return numerics.LockRange(0, 100*(bars[len(bars)-1].Close-lowest)/(highest-lowest), 100)
}

// StochasticHist is the stochastic minus its 3-bar signal average.
func StochasticHist(w []model.Bar) float64 {
	var sum float64
	for i := 0; i < StochasticSignalLength; i++ {
		sum += Stochastic(trunc(w, i, "stochastic hist"))
	}
	return Stochastic(w) - sum/StochasticSignalLength
}

// RVI is the newest bar's body over its range; 0 for a zero-range bar.
func RVI(w []model.Bar) float64 {
	b := last(w, 1, "rvi")[0]
	if b.High == b.Low {
		return 0
	}
	return (b.Close - b.Open) / (b.High - b.Low)
}

// RVIHist compares the 10-bar SMA of close with the 4-bar volume-weighted
// close. Windows with no volume read 0.
func RVIHist(w []model.Bar) float64 {
	green := SMA(w, RVIGreenLength)
	var red, vol float64
	for _, b := range last(w, RVIRedLength, "rvi hist") {
		red += b.Close * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return 0
	}
	return green - red/vol
}
