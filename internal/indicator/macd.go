package indicator

import (
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// MACD is EMA10(close) - EMA26(close).
func MACD(w []model.Bar) float64 {
	closes := Closes(w)
	return numerics.EMA(closes, MACDFast) - numerics.EMA(closes, MACDSlow)
}

// macdSeries returns the MACD of the last MACDSeries truncations, oldest first.
// When scale is set each point is divided by the newest close.
func macdSeries(w []model.Bar, scale bool) []float64 {
	macds := make([]float64, MACDSeries)
	price := last(w, 1, "macd")[0].Close
	for i := range macds {
		m := MACD(trunc(w, i, "macd"))
		if scale {
			m /= price
		}
		macds[len(macds)-1-i] = m
	}
	return macds
}

// MACDHist is the distance between the latest MACD and its EMA9 signal line.
func MACDHist(w []model.Bar) float64 {
	macds := macdSeries(w, false)
	return macds[len(macds)-1] - numerics.EMA(macds, MACDSignal)
}

// StanMACDHist is a price-independent MACD histogram: every MACD is divided by
// the latest close and compared with their simple average.
func StanMACDHist(w []model.Bar) float64 {
	macds := macdSeries(w, true)
	return macds[len(macds)-1] - numerics.SMA(macds)
}

// histAt is the histogram as it read i bars ago.
func histAt(w []model.Bar, i int) float64 {
	return MACDHist(trunc(w, i, "macd hist"))
}

func isPeak(cur, prev, lst float64) bool {
	return cur > 0 && prev > 0 && lst > 0 && cur < prev && prev > lst
}

func isTrough(cur, prev, lst float64) bool {
	return cur < 0 && prev < 0 && lst < 0 && cur > prev && prev < lst
}

// MACDHistTurnedUp reports a histogram trough one bar ago, confirmed by the
// newest bar.
func MACDHistTurnedUp(w []model.Bar) bool {
	return isTrough(histAt(w, 0), histAt(w, 1), histAt(w, 2))
}

// MACDHistSells counts histogram peaks walking back through the most recent
// positive run, stopping once the run is left.
func MACDHistSells(w []model.Bar) float64 {
	up := false
	peaks := 0
	for i := 0; ; i++ {
		cur := histAt(w, i)
		if up && cur < 0 {
			return float64(peaks)
		}
		if cur > 0 {
			up = true
			if isPeak(cur, histAt(w, i+1), histAt(w, i+2)) {
				peaks++
			}
		}
	}
}

// MACDHistBuys counts histogram troughs in the current negative run.
func MACDHistBuys(w []model.Bar) float64 {
	troughs := 0
	for i := 0; ; i++ {
		cur := histAt(w, i)
		if cur >= 0 {
			return float64(troughs)
		}
		if isTrough(cur, histAt(w, i+1), histAt(w, i+2)) {
			troughs++
		}
	}
}

// MACDHistSellsOffset is how many bars back the most recent histogram peak sits.
func MACDHistSellsOffset(w []model.Bar) int {
	for i := 0; ; i++ {
		cur := histAt(w, i)
		if cur <= 0 {
			continue
		}
		if isPeak(cur, histAt(w, i+1), histAt(w, i+2)) && i != 0 {
			return i
		}
	}
}

// MACDHistBuysOffset is how many bars back the most recent histogram trough sits.
func MACDHistBuysOffset(w []model.Bar) int {
	for i := 0; ; i++ {
		if isTrough(histAt(w, i), histAt(w, i+1), histAt(w, i+2)) && i != 0 {
			return i
		}
	}
}

// MACDHistNextSellsIndex returns the index of the next histogram peak after
// start. The peak is confirmed by the bar it returns, and no later bar is read.
func MACDHistNextSellsIndex(bars []model.Bar, start int) int {
	return ScanForward(bars, start+2, func(w []model.Bar) bool {
		lst := histAt(w, 2)
		if lst <= 0 {
			return false
		}
		prev := histAt(w, 1)
		if prev <= lst {
			return false
		}
		return isPeak(histAt(w, 0), prev, lst)
	})
}
