package indicator

import "trading-featuresv1/internal/model"

// AroonUp is the 25-period Aroon up line.
func AroonUp(w []model.Bar) float64 { return AroonUpN(w, AroonPeriods) }

// AroonDown is the 25-period Aroon down line.
func AroonDown(w []model.Bar) float64 { return AroonDownN(w, AroonPeriods) }

// AroonUpN is 100*(length - periods since the highest high)/length.
func AroonUpN(w []model.Bar, length int) float64 {
	l := float64(length)
	return (l - PeriodsSinceHigh(last(w, length, "aroon up"))) / l * 100
}

// AroonDownN is 100*(length - periods since the lowest low)/length.
func AroonDownN(w []model.Bar, length int) float64 {
	l := float64(length)
	return (l - PeriodsSinceLow(last(w, length, "aroon down"))) / l * 100
}

// PeriodsSinceHigh counts bars back from the newest to the highest high.
// Ties keep the most recent bar.
func PeriodsSinceHigh(w []model.Bar) float64 {
	var high, day float64
	for i := 0; i < len(w); i++ {
		if b := w[len(w)-1-i]; b.High > high {
			day, high = float64(i), b.High
		}
	}
	return day
}

// PeriodsSinceLow counts bars back from the newest to the lowest low.
// A zero low is treated as "no low seen yet".
func PeriodsSinceLow(w []model.Bar) float64 {
	var low, day float64
	for i := 0; i < len(w); i++ {
		b := w[len(w)-1-i]
		if low == 0 {
			low = b.Low
		} else if b.Low < low {
			day, low = float64(i), b.Low
		}
	}
	return day
}
