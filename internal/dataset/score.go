package dataset

import (
	"fmt"
	"math"

	"trading-featuresv1/internal/numerics"
)

// Classify maps the first column of each output row to -1 below score and 1 otherwise.
func Classify(outputs [][]float64, score float64) [][]float64 {
	out := make([][]float64, len(outputs))
	for i, row := range outputs {
		if row[0] < score {
			out[i] = []float64{-1}
		} else {
			out[i] = []float64{1}
		}
	}
	return out
}

// ConfusionMatrix tallies binary predictions against actual outcomes.
// Positive means strictly greater than zero on both sides.
type ConfusionMatrix struct {
	TruePositive  float64
	FalsePositive float64
	FalseNegative float64
	TrueNegative  float64
}

// Add tallies predicted against the first column of actual.
func (m *ConfusionMatrix) Add(predicted []float64, actual [][]float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("confusion matrix: %d predictions for %d rows", len(predicted), len(actual))
	}
	for i, p := range predicted {
		yes := actual[i][0] > 0
		switch {
		case p > 0 && yes:
			m.TruePositive++
		case p > 0:
			m.FalsePositive++
		case yes:
			m.FalseNegative++
		default:
			m.TrueNegative++
		}
	}
	return nil
}

// Total is the number of tallied rows.
func (m *ConfusionMatrix) Total() float64 {
	return m.TruePositive + m.FalsePositive + m.FalseNegative + m.TrueNegative
}

// Precision is TP/(TP+FP); NaN with no positive predictions.
func (m *ConfusionMatrix) Precision() float64 {
	return m.TruePositive / (m.TruePositive + m.FalsePositive)
}

// Recall is TP/(TP+FN); NaN with no actual positives.
func (m *ConfusionMatrix) Recall() float64 {
	return m.TruePositive / (m.TruePositive + m.FalseNegative)
}

// F1 is the harmonic mean of precision and recall.
func (m *ConfusionMatrix) F1() float64 {
	p, r := m.Precision(), m.Recall()
	return 2 * p * r / (p + r)
}

// MeanAbsError is the summed absolute error over all cells divided by the row count.
func MeanAbsError(actual, predicted [][]float64) float64 {
	var total float64
	for i, row := range actual {
		for j, a := range row {
			total += math.Abs(predicted[i][j] - a)
		}
	}
	return total / float64(len(actual))
}

// MeanCorrelation is the mean per-column Pearson correlation between actual
// and predicted. Constant columns make it NaN.
func MeanCorrelation(actual, predicted [][]float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	cols := len(actual[0])
	var sum float64
	x := make([]float64, len(actual))
	y := make([]float64, len(actual))
	for c := 0; c < cols; c++ {
		for r := range actual {
			x[r], y[r] = actual[r][c], predicted[r][c]
		}
		sum += numerics.Correlation(x, y)
	}
	return sum / float64(cols)
}
