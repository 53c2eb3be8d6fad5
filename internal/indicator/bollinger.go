package indicator

import (
	"math"

	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// BollingerMiddle is the SMA of the last length closes.
func BollingerMiddle(w []model.Bar, length int) float64 {
	return SMA(w, length)
}

// BollingerUpper is the middle band plus two sample standard deviations.
func BollingerUpper(w []model.Bar, length int) float64 {
	_, std := numerics.MeanStd(Closes(last(w, length, "bollinger")))
	return BollingerMiddle(w, length) + std*2
}

// BollingerLower is the middle band minus two sample standard deviations.
func BollingerLower(w []model.Bar, length int) float64 {
	_, std := numerics.MeanStd(Closes(last(w, length, "bollinger")))
	return BollingerMiddle(w, length) - std*2
}

// PercOutsideBollingerBand is PercAbove + PercBelow, clamped to [0, 100].
func PercOutsideBollingerBand(w []model.Bar, length int) float64 {
	return numerics.LockRange(0, PercAboveBollingerBand(w, length)+PercBelowBollingerBand(w, length), 100)
}

// PercAboveBollingerBand is the share of the last length bars' high-low range
// that sat above the upper band, each bar measured against the band as it
// stood at that bar. Zero-range bars count wholly in or out.
func PercAboveBollingerBand(w []model.Bar, length int) float64 {
	n := len(w)
	bars := last(w, length, "perc above band")
	var outside, inside float64
	for i, b := range bars {
		upper := BollingerUpper(w[:n+1-length+i], BollingerPeriods)
		upper = math.Min(b.High, upper)
		if stick := b.High - b.Low; stick != 0 {
			outside += (b.High - upper) / stick
			inside += (upper - b.Low) / stick
		} else if b.High > upper {
			outside++
		} else {
			inside++
		}
	}
	return numerics.LockRange(0, outside*100/(outside+inside), 100)
}

// PercBelowBollingerBand mirrors PercAboveBollingerBand against the lower
// band, which is floored at zero.
func PercBelowBollingerBand(w []model.Bar, length int) float64 {
	n := len(w)
	bars := last(w, length, "perc below band")
	var outside, inside float64
	for i, b := range bars {
		lower := BollingerLower(w[:n+1-length+i], BollingerPeriods)
		lower = math.Max(lower, 0)
		lower = math.Max(b.Low, lower)
		if stick := b.High - b.Low; stick != 0 {
			outside += (lower - b.Low) / stick
			inside += (b.High - lower) / stick
		} else if b.Low < lower {
			outside++
		} else {
			inside++
		}
	}
	return numerics.LockRange(0, outside*100/(outside+inside), 100)
}
