package indicator

import (
	"math"

	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// Closes returns the close of each bar.
func Closes(w []model.Bar) []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.Close
	}
	return out
}

// Opens returns the open of each bar.
func Opens(w []model.Bar) []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.Open
	}
	return out
}

// Highs returns the high of each bar.
func Highs(w []model.Bar) []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.High
	}
	return out
}

// Lows returns the low of each bar.
func Lows(w []model.Bar) []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume of each bar.
func Volumes(w []model.Bar) []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.Volume
	}
	return out
}

// WeightedAverages returns the weighted average of each bar.
func WeightedAverages(w []model.Bar) []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.WeightedAverage
	}
	return out
}

// High is the highest high in w.
func High(w []model.Bar) float64 { return numerics.High(Highs(w)) }

// Low is the lowest low in w.
func Low(w []model.Bar) float64 { return numerics.Low(Lows(w)) }

// HighOpen is the highest open in w.
func HighOpen(w []model.Bar) float64 { return numerics.High(Opens(w)) }

// LowOpen is the lowest open in w.
func LowOpen(w []model.Bar) float64 { return numerics.Low(Opens(w)) }

// HighOpenIndex is the offset of the highest open in w.
func HighOpenIndex(w []model.Bar) int { return numerics.HighIndex(Opens(w)) }

// LowOpenIndex is the offset of the lowest open in w.
func LowOpenIndex(w []model.Bar) int { return numerics.LowIndex(Opens(w)) }

// VolSum is the total volume traded in w.
func VolSum(w []model.Bar) float64 { return numerics.Sum(Volumes(w)) }

// VolStat is the mean and sample std of the volumes in w.
func VolStat(w []model.Bar) (mean, std float64) { return numerics.MeanStd(Volumes(w)) }

// WeightedAverage is the volume-weighted average price of w. With no volume
// it falls back to the newest bar's own weighted average.
func WeightedAverage(w []model.Bar) float64 {
	var total, vol float64
	for _, b := range w {
		total += b.Volume * b.WeightedAverage
		vol += b.Volume
	}
	if vol == 0 {
		return last(w, 1, "weighted average")[0].WeightedAverage
	}
	return total / vol
}

// TotalPumps counts bars that rose by at least PumpDelta percent.
func TotalPumps(w []model.Bar) float64 {
	var n float64
	for _, b := range w {
		if b.Delta() >= PumpDelta {
			n++
		}
	}
	return n
}

// TotalDumps counts bars that fell by at least DumpDelta percent.
func TotalDumps(w []model.Bar) float64 {
	var n float64
	for _, b := range w {
		if b.Delta() <= DumpDelta {
			n++
		}
	}
	return n
}

// Stability is the volume-weighted mean distance of each bar's weighted
// average from the window mean, in standard deviations. Flat or volumeless
// windows report 0.
func Stability(w []model.Bar) float64 {
	mean, std := numerics.MeanStd(WeightedAverages(w))
	if std == 0 {
		return 0
	}
	var distance, total float64
	for _, b := range w {
		distance += math.Abs((b.WeightedAverage-mean)/std) * b.Volume
		total += b.Volume
	}
	v := distance / total
	if math.IsNaN(v) {
		return 0
	}
	return v
}
