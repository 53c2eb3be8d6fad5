package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
)

// ScoreColumn is the trailing column appended by WriteScored.
const ScoreColumn = "score"

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// exported reports the columns written to CSV, in schema order.
func (d *DataSet) exported(withUnused bool) []Column {
	var cols []Column
	for i, r := range d.roles {
		if r == Unused && !withUnused {
			continue
		}
		cols = append(cols, Column(i))
	}
	return cols
}

// WriteHeader writes the header line. Unused columns are left out unless
// withUnused is set.
func (d *DataSet) WriteHeader(w io.Writer, withUnused bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.names(d.exported(withUnused))); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (d *DataSet) writeRows(cw *csv.Writer, cols []Column, scores []float64) error {
	rec := make([]string, 0, len(cols)+1)
	for i, fv := range d.rows {
		rec = rec[:0]
		for _, c := range cols {
			rec = append(rec, floatStr(fv.values[c]))
		}
		if scores != nil {
			rec = append(rec, floatStr(scores[i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the header and every row.
func (d *DataSet) WriteCSV(w io.Writer, withUnused bool) error {
	if err := d.WriteHeader(w, withUnused); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := d.writeRows(csv.NewWriter(w), d.exported(withUnused), nil); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Flush writes every row without a header and then clears the rows, for
// appending to a file whose header was written earlier.
func (d *DataSet) Flush(w io.Writer, withUnused bool) error {
	if err := d.writeRows(csv.NewWriter(w), d.exported(withUnused), nil); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	d.Clear()
	return nil
}

// WriteScored writes every column plus a trailing score per row.
func (d *DataSet) WriteScored(w io.Writer, scores []float64) error {
	if len(scores) != len(d.rows) {
		return fmt.Errorf("write scored: %d scores for %d rows", len(scores), len(d.rows))
	}
	cols := d.exported(true)
	cw := csv.NewWriter(w)
	if err := cw.Write(append(d.names(cols), ScoreColumn)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := d.writeRows(cw, cols, scores); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Load reads a CSV dataset: a header of column names followed by rows of
// decimals. When rng is non-nil the rows are shuffled once, after which
// their order is fixed.
func Load(r io.Reader, rng *rand.Rand) (*DataSet, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("load header: %w", err)
	}
	d := New()
	if _, err := d.AddFeatures(header...); err != nil {
		return nil, fmt.Errorf("load header: %w", err)
	}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("load line %d: %w", line, err)
		}
		fv := d.NewVector()
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("load line %d column %q: %w", line, header[i], err)
			}
			fv.SetAt(Column(i), v)
		}
		if err := d.Insert(fv); err != nil {
			return nil, fmt.Errorf("load line %d: %w", line, err)
		}
	}
	if rng != nil {
		rng.Shuffle(len(d.rows), func(i, j int) { d.rows[i], d.rows[j] = d.rows[j], d.rows[i] })
	}
	return d, nil
}
