// Package numerics holds the small numeric helpers shared by the indicator
// library and the normalisation layer. Every helper is total: degenerate
// inputs (zero variance, zero denominators) resolve to fixed fallbacks.
package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// OutOfBoundsError reports a lookback that needs more history than is available.
type OutOfBoundsError struct {
	Op   string
	Need int
	Have int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: out of bounds: need %d values, have %d", e.Op, e.Need, e.Have)
}

// Need panics with *OutOfBoundsError when have < need.
// The indicator package recovers these at its boundary (see indicator.Try).
func Need(op string, need, have int) {
	if need < 0 || have < need {
		panic(&OutOfBoundsError{Op: op, Need: need, Have: have})
	}
}

// LockRange clamps x into [lower, upper]. NaN maps to the midpoint.
func LockRange(lower, x, upper float64) float64 {
	if math.IsNaN(x) {
		return (upper + lower) / 2
	}
	return math.Min(upper, math.Max(lower, x))
}

// Sum adds xs.
func Sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// SMA is the plain arithmetic mean. An empty slice yields NaN.
func SMA(xs []float64) float64 {
	return Sum(xs) / float64(len(xs))
}

// EMA weights the last length points with k = 2/(length+1), seeded by the
// simple average of the length points that precede them. Needs 2*length points.
func EMA(xs []float64, length int) float64 {
	n := len(xs)
	Need("ema", 2*length, n)
	k := 2 / (float64(length) + 1)
	ema := SMA(xs[n-2*length : n-length])
	for _, x := range xs[n-length:] {
		ema = x*k + (1-k)*ema
	}
	return ema
}

// MeanStd returns the mean and sample (n-1) standard deviation of xs.
// Either value is 0 when it is undefined, e.g. a single sample.
func MeanStd(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	mean, std = stat.MeanStdDev(xs, nil)
	if math.IsNaN(mean) {
		mean = 0
	}
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// Pearson is the correlation coefficient of x and y with fallbacks:
// both sides constant yields 1, one side constant yields 0.
func Pearson(x, y []float64) float64 {
	mx, my := SMA(x), SMA(y)
	var rxy, rxx, ryy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		rxy += dx * dy
		rxx += dx * dx
		ryy += dy * dy
	}
	rxx, ryy = math.Sqrt(rxx), math.Sqrt(ryy)
	switch {
	case rxx == 0 && ryy == 0:
		return 1
	case rxx == 0 || ryy == 0:
		return 0
	}
	return rxy / (rxx * ryy)
}

// Correlation is the raw Pearson coefficient. It is NaN when either side has
// no variance; callers decide what undefined means.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// PC is the percentage change from first to last; 0 when first is 0.
func PC(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// Perc expresses p as a percentage of of; 100 when of is 0.
func Perc(p, of float64) float64 {
	if of == 0 {
		return 100
	}
	return p * 100 / of
}

// High is the maximum of xs, floored at 0.
func High(xs []float64) float64 {
	var h float64
	for _, x := range xs {
		h = math.Max(x, h)
	}
	return h
}

// Low is the minimum of xs; 0 for an empty slice.
func Low(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	l := xs[0]
	for _, x := range xs[1:] {
		l = math.Min(x, l)
	}
	return l
}

// HighIndex is the index of the first strict maximum above 0.
func HighIndex(xs []float64) int {
	var h float64
	idx := 0
	for i, x := range xs {
		if x > h {
			idx, h = i, x
		}
	}
	return idx
}

// LowIndex is the index of the first minimum.
func LowIndex(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x < xs[idx] {
			idx = i
		}
	}
	return idx
}

// Time returns 0..n-1 as floats, the x axis for momentum correlations.
func Time(n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	return t
}

// HealNaN repairs NaN gaps in place: a leading NaN takes the nearest known
// value after it, a trailing NaN the nearest known value before it, and
// interior runs are linearly interpolated between their known neighbours.
// It reports false when xs holds no known value at all.
func HealNaN(xs []float64) bool {
	n := len(xs)
	first := -1
	for i, x := range xs {
		if !math.IsNaN(x) {
			first = i
			break
		}
	}
	if first < 0 {
		return false
	}
	for i := 0; i < first; i++ {
		xs[i] = xs[first]
	}
	last := first
	for i := n - 1; i > first; i-- {
		if !math.IsNaN(xs[i]) {
			last = i
			break
		}
	}
	for i := last + 1; i < n; i++ {
		xs[i] = xs[last]
	}
	for i := first + 1; i < last; i++ {
		if !math.IsNaN(xs[i]) {
			continue
		}
		j := i + 1
		for math.IsNaN(xs[j]) {
			j++
		}
		prior := xs[i-1]
		xs[i] = prior + (xs[j]-prior)/float64(j-i+1)
	}
	return true
}
