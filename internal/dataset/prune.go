package dataset

import (
	"fmt"
	"log"
	"math"
	"sort"

	"trading-featuresv1/internal/numerics"
)

// DefaultPruneKeep is the number of inputs PruneUseless keeps by default.
const DefaultPruneKeep = 140

// Correlation is one input column's Pearson correlation with the output.
type Correlation struct {
	Name  string
	Value float64
}

// PruneUseless ranks Input columns by absolute correlation with the single
// Output column over every row. Columns whose correlation is undefined are
// marked Unused, then every column past the top keep. Output and Unused
// columns are never touched. The ranked survivors are returned.
func (d *DataSet) PruneUseless(keep int) ([]Correlation, error) {
	outs := d.columns(Output)
	if len(outs) != 1 {
		return nil, fmt.Errorf("prune: need exactly one output column, have %d", len(outs))
	}
	target, err := d.Feature(d.schema.Name(outs[0]), All)
	if err != nil {
		return nil, err
	}

	var ranked, undefined []Correlation
	for _, c := range d.columns(Input) {
		name := d.schema.Name(c)
		col, err := d.Feature(name, All)
		if err != nil {
			return nil, err
		}
		r := numerics.Correlation(target, col)
		if math.IsNaN(r) {
			undefined = append(undefined, Correlation{Name: name, Value: r})
			continue
		}
		ranked = append(ranked, Correlation{Name: name, Value: r})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Value) > math.Abs(ranked[j].Value)
	})

	for _, u := range undefined {
		if err := d.MarkUnused(u.Name); err != nil {
			return nil, err
		}
	}
	if keep < 0 {
		keep = 0
	}
	if keep > len(ranked) {
		keep = len(ranked)
	}
	for _, drop := range ranked[keep:] {
		if err := d.MarkUnused(drop.Name); err != nil {
			return nil, err
		}
	}
	log.Printf("[dataset] prune: %d undefined, %d dropped, %d kept", len(undefined), len(ranked)-keep, keep)
	return ranked[:keep], nil
}
