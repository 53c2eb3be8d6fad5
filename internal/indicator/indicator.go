// Package indicator computes technical indicators over causal windows of bars.
//
// A window is a []model.Bar whose last element is "now"; functions only read
// its trailing bars. Asking for a lookback longer than the window is a fault
// for that one computation: functions panic with *OutOfBoundsError and Try
// turns the panic back into an ordinary error at the call site.
package indicator

import (
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// OutOfBoundsError reports a window shorter than the lookback requires.
type OutOfBoundsError = numerics.OutOfBoundsError

// Default lookbacks.
const (
	PumpDelta = 7.0  // percent move in one bar counted as a pump
	DumpDelta = -7.0 // percent move in one bar counted as a dump

	AroonPeriods           = 25
	RSIPeriods             = 14
	StochRSIPeriods        = 14
	TMFPeriods             = 21
	BollingerPeriods       = 20
	RVIGreenLength         = 10
	RVIRedLength           = 4
	StochasticLength       = 14
	StochasticSignalLength = 3
	IchimokuConversion     = 9
	IchimokuBase           = 26

	MACDFast   = 10
	MACDSlow   = 26
	MACDSignal = 9
	MACDSeries = 18 // MACD points feeding the histogram signal line
)

// Try runs fn and returns the *OutOfBoundsError it panicked with, if any.
// Any other panic is re-raised.
func Try(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if oob, ok := r.(*OutOfBoundsError); ok {
				err = oob
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

// Value evaluates a single indicator, converting an out-of-bounds fault to an error.
func Value(fn func() float64) (v float64, err error) {
	err = Try(func() { v = fn() })
	return v, err
}

// last returns the trailing n bars of w.
func last(w []model.Bar, n int, op string) []model.Bar {
	numerics.Need(op, n, len(w))
	return w[len(w)-n:]
}

// trunc drops the newest i bars, i.e. the window as it looked i periods ago.
func trunc(w []model.Bar, i int, op string) []model.Bar {
	numerics.Need(op, i, len(w))
	return w[:len(w)-i]
}

// span returns w[from:to] after checking the bounds.
func span(w []model.Bar, from, to int, op string) []model.Bar {
	if from < 0 || to > len(w) || from > to {
		need := to
		if from < 0 {
			need = len(w) - from
		}
		panic(&OutOfBoundsError{Op: op, Need: need, Have: len(w)})
	}
	return w[from:to]
}

// Span is the bounds-checked w[from:to] used by feature code outside this package.
func Span(w []model.Bar, from, to int) []model.Bar {
	return span(w, from, to, "span")
}

// At is the bounds-checked w[i].
func At(w []model.Bar, i int) model.Bar {
	if i < 0 || i >= len(w) {
		panic(&OutOfBoundsError{Op: "bar", Need: i + 1, Have: len(w)})
	}
	return w[i]
}

// ScanForward walks forward from start and returns the first index i > start
// for which pred holds on the causal window bars[:i+1]. pred never sees a bar
// after i. Running off the end of bars is an out-of-bounds fault.
func ScanForward(bars []model.Bar, start int, pred func(w []model.Bar) bool) int {
	for i := start + 1; ; i++ {
		if i >= len(bars) {
			panic(&OutOfBoundsError{Op: "scan forward", Need: i + 1, Have: len(bars)})
		}
		if pred(bars[:i+1]) {
			return i
		}
	}
}
