// Package dataset holds labeled feature rows for model training: a frozen
// column schema, per-column roles, deterministic fold selection, correlation
// pruning and CSV exchange.
//
// A DataSet is single-writer. Callers running several scans concurrently use
// one DataSet per goroutine.
package dataset

import (
	"fmt"
)

// Role is the part a column plays when a DataSet is handed to a model.
type Role uint8

const (
	Input Role = iota
	Output
	Unused
)

func (r Role) String() string {
	switch r {
	case Input:
		return "input"
	case Output:
		return "output"
	case Unused:
		return "unused"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// DataSet is a schema plus its rows in insertion order.
type DataSet struct {
	schema *Schema
	roles  []Role
	rows   []*FeatureVector
}

// New returns an empty DataSet with an open schema.
func New() *DataSet {
	return &DataSet{schema: newSchema()}
}

// Schema exposes the column set.
func (d *DataSet) Schema() *Schema { return d.schema }

// AddFeature appends a column. It fails once a vector has been materialized
// or when the name is already present.
func (d *DataSet) AddFeature(name string) (Column, error) {
	c, err := d.schema.add(name)
	if err != nil {
		return 0, err
	}
	d.roles = append(d.roles, Input)
	return c, nil
}

// AddFeatures appends each name in order and returns their handles.
func (d *DataSet) AddFeatures(names ...string) ([]Column, error) {
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		c, err := d.AddFeature(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// NewVector freezes the schema and returns a blank row bound to it.
func (d *DataSet) NewVector() *FeatureVector {
	d.schema.frozen = true
	values := make([]float64, d.schema.Len())
	for i := range values {
		values[i] = unset
	}
	return &FeatureVector{schema: d.schema, values: values}
}

// Insert appends fv. The vector must come from this DataSet's schema and have
// every column set.
func (d *DataSet) Insert(fv *FeatureVector) error {
	if fv.schema != d.schema || len(fv.values) != d.schema.Len() {
		return fmt.Errorf("insert: feature vector does not match the dataset schema")
	}
	if name, ok := fv.Incomplete(); ok {
		return &IncompleteVectorError{Name: name}
	}
	d.rows = append(d.rows, fv)
	return nil
}

// Len is the number of rows.
func (d *DataSet) Len() int { return len(d.rows) }

// Row returns row i.
func (d *DataSet) Row(i int) *FeatureVector { return d.rows[i] }

// FeatureCount is the number of columns.
func (d *DataSet) FeatureCount() int { return d.schema.Len() }

func (d *DataSet) mark(name string, role Role) error {
	c, ok := d.schema.Column(name)
	if !ok {
		return &SchemaError{Op: "mark " + role.String(), Name: name, Err: ErrUnknownFeature}
	}
	if d.roles[c] != Input {
		return &SchemaError{Op: "mark " + role.String(), Name: name, Err: fmt.Errorf("%w as %s", ErrRoleConflict, d.roles[c])}
	}
	d.roles[c] = role
	return nil
}

// MarkOutput tags a column as a model output.
func (d *DataSet) MarkOutput(name string) error { return d.mark(name, Output) }

// MarkUnused hides a column from both inputs and outputs.
func (d *DataSet) MarkUnused(name string) error { return d.mark(name, Unused) }

// WipeMarks returns every column to Input.
func (d *DataSet) WipeMarks() {
	for i := range d.roles {
		d.roles[i] = Input
	}
}

// Role reports the role of the named column.
func (d *DataSet) Role(name string) (Role, error) {
	c, ok := d.schema.Column(name)
	if !ok {
		return 0, &SchemaError{Op: "role", Name: name, Err: ErrUnknownFeature}
	}
	return d.roles[c], nil
}

// MarkUnusedUnless keeps output and inputs and marks every other column Unused.
func (d *DataSet) MarkUnusedUnless(output string, inputs []string) error {
	keep := make(map[string]bool, len(inputs)+1)
	keep[output] = true
	for _, in := range inputs {
		keep[in] = true
	}
	for _, name := range d.schema.names {
		if keep[name] {
			continue
		}
		if err := d.MarkUnused(name); err != nil {
			return err
		}
	}
	return nil
}

func (d *DataSet) columns(role Role) []Column {
	var out []Column
	for i, r := range d.roles {
		if r == role {
			out = append(out, Column(i))
		}
	}
	return out
}

func (d *DataSet) names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.schema.Name(c)
	}
	return out
}

// InputNames lists the Input columns in schema order.
func (d *DataSet) InputNames() []string { return d.names(d.columns(Input)) }

// OutputNames lists the Output columns in schema order.
func (d *DataSet) OutputNames() []string { return d.names(d.columns(Output)) }

// UnusedNames lists the Unused columns in schema order.
func (d *DataSet) UnusedNames() []string { return d.names(d.columns(Unused)) }

// OutputName is the first Output column.
func (d *DataSet) OutputName() (string, error) {
	outs := d.columns(Output)
	if len(outs) == 0 {
		return "", fmt.Errorf("output does not exist")
	}
	return d.schema.Name(outs[0]), nil
}

// InputCount is the number of Input columns.
func (d *DataSet) InputCount() int { return len(d.columns(Input)) }

// OutputCount is the number of Output columns.
func (d *DataSet) OutputCount() int { return len(d.columns(Output)) }

// DropLast removes up to n rows from the end.
func (d *DataSet) DropLast(n int) {
	if n > len(d.rows) {
		n = len(d.rows)
	}
	for i := len(d.rows) - n; i < len(d.rows); i++ {
		d.rows[i] = nil
	}
	d.rows = d.rows[:len(d.rows)-n]
}

// Clear drops every row. The schema stays frozen.
func (d *DataSet) Clear() {
	d.rows = nil
}
