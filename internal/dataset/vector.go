package dataset

import "math"

// unset marks a column that has not been written yet.
var unset = math.NaN()

// FeatureVector is one schema-aligned row. Obtain it from DataSet.NewVector.
type FeatureVector struct {
	schema *Schema
	values []float64
}

// Set writes value to the named column.
func (fv *FeatureVector) Set(name string, value float64) error {
	c, ok := fv.schema.Column(name)
	if !ok {
		return &SchemaError{Op: "set feature", Name: name, Err: ErrUnknownFeature}
	}
	fv.values[c] = value
	return nil
}

// SetAt writes value to a column resolved beforehand.
func (fv *FeatureVector) SetAt(c Column, value float64) {
	fv.values[c] = value
}

// Get reads the named column. It fails with ErrNotSet while the column is unset.
func (fv *FeatureVector) Get(name string) (float64, error) {
	c, ok := fv.schema.Column(name)
	if !ok {
		return 0, &SchemaError{Op: "get feature", Name: name, Err: ErrUnknownFeature}
	}
	return fv.GetAt(c)
}

// GetAt reads a column resolved beforehand.
func (fv *FeatureVector) GetAt(c Column) (float64, error) {
	v := fv.values[c]
	if math.IsNaN(v) {
		return 0, &SchemaError{Op: "get feature", Name: fv.schema.Name(c), Err: ErrNotSet}
	}
	return v, nil
}

// Incomplete returns the first unset column, if any.
func (fv *FeatureVector) Incomplete() (string, bool) {
	for i, v := range fv.values {
		if math.IsNaN(v) {
			return fv.schema.Name(Column(i)), true
		}
	}
	return "", false
}

// Values returns the row in schema order. The slice aliases the vector.
func (fv *FeatureVector) Values() []float64 { return fv.values }

// Len is the schema width.
func (fv *FeatureVector) Len() int { return len(fv.values) }
