package dataset

import "fmt"

// Fold selects rows by their 0-based insertion index i.
//
// Without a validator, training rows are those with i%K != Index and
// evaluation rows those with i%K == Index. With a validator, a third slice
// (i+1)%K == Index is carved out: training drops it as well, and evaluation
// returns exactly that slice.
type Fold struct {
	K         int
	Index     int
	Train     bool
	Validator bool
}

// All selects every row.
var All = Fold{K: 1, Index: 1, Train: true}

// TrainFold is the training side of fold index out of k.
func TrainFold(k, index int) Fold { return Fold{K: k, Index: index, Train: true} }

// EvalFold is the evaluation side of fold index out of k.
func EvalFold(k, index int) Fold { return Fold{K: k, Index: index} }

// Keep reports whether row i belongs to the fold.
func (f Fold) Keep(i int) bool {
	if !f.Validator {
		if f.Train {
			return i%f.K != f.Index
		}
		return i%f.K == f.Index
	}
	if f.Train {
		return i%f.K != f.Index && (i+1)%f.K != f.Index
	}
	return (i+1)%f.K == f.Index
}

func (f Fold) validate() error {
	if f.K < 1 {
		return fmt.Errorf("fold: k must be positive, got %d", f.K)
	}
	return nil
}

// Indexes returns the row indexes the fold keeps.
func (d *DataSet) Indexes(f Fold) ([]int, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	var out []int
	for i := range d.rows {
		if f.Keep(i) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (d *DataSet) matrix(cols []Column, f Fold) ([][]float64, error) {
	idx, err := d.Indexes(f)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(idx))
	for r, i := range idx {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = d.rows[i].values[c]
		}
		out[r] = row
	}
	return out, nil
}

// Inputs returns the Input columns of the rows selected by f.
func (d *DataSet) Inputs(f Fold) ([][]float64, error) {
	return d.matrix(d.columns(Input), f)
}

// Outputs returns the Output columns of the rows selected by f.
func (d *DataSet) Outputs(f Fold) ([][]float64, error) {
	return d.matrix(d.columns(Output), f)
}

// Feature returns one column of the rows selected by f.
func (d *DataSet) Feature(name string, f Fold) ([]float64, error) {
	c, ok := d.schema.Column(name)
	if !ok {
		return nil, &SchemaError{Op: "feature", Name: name, Err: ErrUnknownFeature}
	}
	m, err := d.matrix([]Column{c}, f)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = row[0]
	}
	return out, nil
}
