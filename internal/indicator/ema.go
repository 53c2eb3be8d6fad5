package indicator

import (
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// EMA is the exponential moving average of closes. It reads the last
// 2*length bars: length to seed the average and length to weight.
func EMA(w []model.Bar, length int) float64 {
	return numerics.EMA(Closes(last(w, 2*length, "ema")), length)
}
