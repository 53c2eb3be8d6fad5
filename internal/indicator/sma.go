package indicator

import (
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// SMA is the simple moving average of the last length closes.
func SMA(w []model.Bar, length int) float64 {
	return numerics.SMA(Closes(last(w, length, "sma")))
}
