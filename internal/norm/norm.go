// Package norm holds per-column summary statistics and the reversible
// transforms that move dataset matrices into and out of model space.
package norm

import (
	"fmt"
	"math"

	"trading-featuresv1/internal/numerics"
)

// NormaliseBound is the z-score clamp applied by Normalise.
const NormaliseBound = 3.5

// Stat summarises one column.
type Stat struct {
	Mean float64
	Std  float64 // sample (n-1)
	Min  float64
	Max  float64
}

// Fill computes the stat of xs. An empty column keeps Min at +MaxFloat64 and
// Max at -MaxFloat64; undefined mean or std read 0.
func (s *Stat) Fill(xs []float64) {
	s.Min, s.Max = math.MaxFloat64, -math.MaxFloat64
	for _, x := range xs {
		s.Max = math.Max(x, s.Max)
		s.Min = math.Min(x, s.Min)
	}
	s.Mean, s.Std = numerics.MeanStd(xs)
}

// Normalise is the z-score of x clamped to ±NormaliseBound.
func (s Stat) Normalise(x float64) float64 {
	return numerics.LockRange(-NormaliseBound, (x-s.Mean)/s.Std, NormaliseBound)
}

// Unnormalise inverts Normalise. Values that were clamped come back at the bound.
func (s Stat) Unnormalise(x float64) float64 {
	return x*s.Std + s.Mean
}

// squashParams maps [Min, Max] onto [-1, 1]. A zero-width column degenerates
// to subtracting Max with no rescale.
func (s Stat) squashParams() (factor, diff float64) {
	const upper, lower = 1.0, -1.0
	if s.Max-s.Min != 0 {
		factor = (s.Max - s.Min) / (upper - lower)
		return factor, s.Max/factor - upper
	}
	return 1, s.Max
}

// Squash rescales x from [Min, Max] to [-1, 1].
func (s Stat) Squash(x float64) float64 {
	factor, diff := s.squashParams()
	return x/factor - diff
}

// Unsquash inverts Squash.
func (s Stat) Unsquash(x float64) float64 {
	factor, diff := s.squashParams()
	return (x + diff) * factor
}

// Normalisation is one Stat per matrix column.
type Normalisation struct {
	Params []Stat
}

// New fits a Normalisation to the columns of m. m must have at least one row.
func New(m [][]float64) (*Normalisation, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("normalisation: empty matrix")
	}
	cols := len(m[0])
	n := &Normalisation{Params: make([]Stat, cols)}
	column := make([]float64, len(m))
	for c := 0; c < cols; c++ {
		for r, row := range m {
			if len(row) != cols {
				return nil, fmt.Errorf("normalisation: row %d has %d columns, want %d", r, len(row), cols)
			}
			column[r] = row[c]
		}
		n.Params[c].Fill(column)
	}
	return n, nil
}

// Width is the number of columns the normalisation was fitted to.
func (n *Normalisation) Width() int { return len(n.Params) }

func (n *Normalisation) apply(m [][]float64, f func(Stat, float64) float64) [][]float64 {
	out := make([][]float64, len(m))
	for r, row := range m {
		out[r] = make([]float64, len(row))
		for c, x := range row {
			out[r][c] = f(n.Params[c], x)
		}
	}
	return out
}

// Normalise z-scores every cell of m into a new matrix.
func (n *Normalisation) Normalise(m [][]float64) [][]float64 {
	return n.apply(m, Stat.Normalise)
}

// NormaliseRow normalises a single row as a one-row matrix.
func (n *Normalisation) NormaliseRow(row []float64) [][]float64 {
	return n.Normalise([][]float64{row})
}

// Unnormalise inverts Normalise.
func (n *Normalisation) Unnormalise(m [][]float64) [][]float64 {
	return n.apply(m, Stat.Unnormalise)
}

// Squash rescales every cell of m into [-1, 1].
func (n *Normalisation) Squash(m [][]float64) [][]float64 {
	return n.apply(m, Stat.Squash)
}

// Unsquash inverts Squash.
func (n *Normalisation) Unsquash(m [][]float64) [][]float64 {
	return n.apply(m, Stat.Unsquash)
}

// Squashalise normalises then squashes with the same column stats.
func (n *Normalisation) Squashalise(m [][]float64) [][]float64 {
	return n.apply(m, func(s Stat, x float64) float64 { return s.Squash(s.Normalise(x)) })
}

// Unsquashalise inverts Squashalise.
func (n *Normalisation) Unsquashalise(m [][]float64) [][]float64 {
	return n.apply(m, func(s Stat, x float64) float64 { return s.Unnormalise(s.Unsquash(x)) })
}

// Vectors returns the per-column parameters as plain vectors for storage.
func (n *Normalisation) Vectors() (means, stds, mins, maxs []float64) {
	k := len(n.Params)
	means, stds, mins, maxs = make([]float64, k), make([]float64, k), make([]float64, k), make([]float64, k)
	for i, p := range n.Params {
		means[i], stds[i], mins[i], maxs[i] = p.Mean, p.Std, p.Min, p.Max
	}
	return means, stds, mins, maxs
}

// FromVectors rebuilds a Normalisation from stored vectors of equal length.
func FromVectors(means, stds, mins, maxs []float64) (*Normalisation, error) {
	k := len(means)
	if len(stds) != k || len(mins) != k || len(maxs) != k {
		return nil, fmt.Errorf("normalisation: vector lengths differ: %d/%d/%d/%d", k, len(stds), len(mins), len(maxs))
	}
	n := &Normalisation{Params: make([]Stat, k)}
	for i := range n.Params {
		n.Params[i] = Stat{Mean: means[i], Std: stds[i], Min: mins[i], Max: maxs[i]}
	}
	return n, nil
}
