// Package trigger detects strategy events in a bar series and turns each one
// into a feature vector for the trigger's dataset.
//
// A Spec is a plain record: when the event fires, which extra columns it
// records, where the trade it describes ends, and which label columns
// describe the outcome. One engine materializes every Spec, in past mode for
// inference and in future mode for training.
package trigger

import (
	"errors"
	"fmt"
	"log"

	"trading-featuresv1/internal/dataset"
	"trading-featuresv1/internal/indicator"
	"trading-featuresv1/internal/model"
)

// Spec describes one trigger variant.
type Spec struct {
	Name   string
	Period int

	// IsTriggered decides at the context's index. It sees only past bars.
	IsTriggered func(c *Context) bool

	// Extra are variant columns computed from past bars.
	Extra []Group

	// Exit returns the sell index of a defined-end trade opened at index.
	// It must not read bars past the index it returns. Nil for variants
	// without a defined end.
	Exit func(bars []model.Bar, index int) int

	Labels []LabelGroup
}

// Outcome is what AddIfTriggered did at one index.
type Outcome int

const (
	NotTriggered Outcome = iota
	Inserted
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Skipped:
		return "skipped"
	default:
		return "not triggered"
	}
}

// Trigger is a Spec bound to the dataset it fills.
// A Trigger is not safe for concurrent use.
type Trigger struct {
	spec   Spec
	set    *dataset.DataSet
	groups []Group
	cols   [][]dataset.Column
	labels [][]dataset.Column
}

// New builds the trigger's dataset: variant columns first, then the basic
// columns shared by every trigger.
func New(spec Spec) (*Trigger, error) {
	if spec.IsTriggered == nil {
		return nil, fmt.Errorf("trigger %q: no trigger condition", spec.Name)
	}
	if spec.Period <= 0 {
		return nil, fmt.Errorf("trigger %q: invalid period %d", spec.Name, spec.Period)
	}
	t := &Trigger{
		spec:   spec,
		groups: append(append([]Group{}, spec.Extra...), basicGroups...),
	}
	set, err := t.newDataSet()
	if err != nil {
		return nil, err
	}
	t.set = set
	return t, nil
}

// newDataSet registers the trigger's schema on an empty dataset and
// resolves the column handles.
func (t *Trigger) newDataSet() (*dataset.DataSet, error) {
	set := dataset.New()
	t.labels = t.labels[:0]
	for _, lg := range t.spec.Labels {
		cols, err := set.AddFeatures(lg.Names...)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", t.spec.Name, err)
		}
		t.labels = append(t.labels, cols)
	}
	t.cols = t.cols[:0]
	for _, g := range t.groups {
		cols, err := set.AddFeatures(g.Names...)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", t.spec.Name, err)
		}
		t.cols = append(t.cols, cols)
	}
	return set, nil
}

// Name returns the variant name.
func (t *Trigger) Name() string { return t.spec.Name }

// Period returns the bar period the variant runs on, in seconds.
func (t *Trigger) Period() int { return t.spec.Period }

// DataSet returns the dataset the trigger fills.
func (t *Trigger) DataSet() *dataset.DataSet { return t.set }

// FileName is the CSV name the trigger's dataset is written to.
func (t *Trigger) FileName() string { return "output-" + t.spec.Name + ".csv" }

// LabelNames lists the trigger's label columns in schema order.
func (t *Trigger) LabelNames() []string { return labelNames(t.spec.Labels) }

// IsTriggered evaluates the trigger condition at index with only bars up to
// index visible.
func (t *Trigger) IsTriggered(bars, ref []model.Bar, index int) (bool, error) {
	var fired bool
	err := guard(func() {
		c := newContext("", t.spec.Period, bars, ref, Past(index))
		fired = t.spec.IsTriggered(c)
	})
	return fired, err
}

// Horizon computes the future-mode horizon at index: the exit of the
// defined-end trade, if any, extended by the reach of every label group.
func (t *Trigger) Horizon(bars []model.Bar, index int) (Horizon, error) {
	h := Horizon{Knowledge: index, Sell: -1, Exit: index}
	err := guard(func() {
		if t.spec.Exit != nil {
			h.Sell = t.spec.Exit(bars, index)
			h.Exit = h.Sell + 1
		}
		for _, lg := range t.spec.Labels {
			if lg.Reach != nil {
				h.Exit = max(h.Exit, index+lg.Reach(t.spec.Period))
			}
		}
		indicator.At(bars, h.Exit)
	})
	return h, err
}

// NewVector returns an empty vector for the trigger's dataset.
func (t *Trigger) NewVector() *dataset.FeatureVector { return t.set.NewVector() }

// Materialize fills fv for the bar at h.Knowledge. Label columns come from
// bars up to h.Exit in future mode and hold their inference defaults in
// past mode.
//
// A lookback running past the start of bars returns *indicator.OutOfBoundsError;
// a reference bar missing at a needed timestamp returns *MissingBarError.
func (t *Trigger) Materialize(fv *dataset.FeatureVector, bars, ref []model.Bar, instrument string, h Horizon) error {
	return guard(func() {
		c := newContext(instrument, t.spec.Period, bars, ref, h)
		for i, lg := range t.spec.Labels {
			v := make([]float64, len(lg.Names))
			if h.Future() {
				lg.Fill(c, v)
			} else {
				for j := range v {
					v[j] = lg.Past
				}
			}
			setAll(fv, t.labels[i], v)
		}
		for i, g := range t.groups {
			v := make([]float64, len(g.Names))
			g.Fill(c, v)
			setAll(fv, t.cols[i], v)
		}
	})
}

// Infer materializes a past-mode vector for index. Nothing after index is
// read; label columns hold their inference defaults.
func (t *Trigger) Infer(bars, ref []model.Bar, index int, instrument string) (*dataset.FeatureVector, error) {
	fv := t.set.NewVector()
	if err := t.Materialize(fv, bars, ref, instrument, Past(index)); err != nil {
		return nil, fmt.Errorf("trigger %q: %w", t.spec.Name, err)
	}
	return fv, nil
}

// AddIfTriggered inserts a future-mode row for index into the dataset when
// the trigger fires there. Missing history or reference bars skip the row
// and are logged; any other failure is returned.
func (t *Trigger) AddIfTriggered(bars, ref []model.Bar, index int, instrument string) (Outcome, error) {
	fired, err := t.IsTriggered(bars, ref, index)
	if err != nil {
		return t.skip(err, index, instrument)
	}
	if !fired {
		return NotTriggered, nil
	}
	h, err := t.Horizon(bars, index)
	if err != nil {
		return t.skip(err, index, instrument)
	}
	fv := t.set.NewVector()
	if err := t.Materialize(fv, bars, ref, instrument, h); err != nil {
		return t.skip(err, index, instrument)
	}
	if err := t.set.Insert(fv); err != nil {
		return NotTriggered, fmt.Errorf("trigger %q: %w", t.spec.Name, err)
	}
	return Inserted, nil
}

func (t *Trigger) skip(err error, index int, instrument string) (Outcome, error) {
	var oob *indicator.OutOfBoundsError
	var missing *MissingBarError
	if errors.As(err, &oob) || errors.As(err, &missing) {
		log.Printf("[trigger] %s: skip %s@%d: %v", t.spec.Name, instrument, index, err)
		return Skipped, nil
	}
	return NotTriggered, fmt.Errorf("trigger %q at %d: %w", t.spec.Name, index, err)
}

// Input extracts the model input row from fv: a scratch dataset with the
// trigger's schema gets fv as its only row, output as its only Output and
// every column outside inputs marked Unused.
func (t *Trigger) Input(fv *dataset.FeatureVector, output string, inputs []string) ([]float64, error) {
	scratch := &Trigger{spec: t.spec, groups: t.groups}
	set, err := scratch.newDataSet()
	if err != nil {
		return nil, err
	}
	row := set.NewVector()
	if row.Len() != fv.Len() {
		return nil, fmt.Errorf("trigger %q: vector has %d columns, schema has %d", t.spec.Name, fv.Len(), row.Len())
	}
	for i, v := range fv.Values() {
		row.SetAt(dataset.Column(i), v)
	}
	if err := set.Insert(row); err != nil {
		return nil, err
	}
	if err := set.MarkOutput(output); err != nil {
		return nil, err
	}
	if err := set.MarkUnusedUnless(output, inputs); err != nil {
		return nil, err
	}
	in, err := set.Inputs(dataset.All)
	if err != nil {
		return nil, err
	}
	return in[0], nil
}

func setAll(fv *dataset.FeatureVector, cols []dataset.Column, v []float64) {
	for i, c := range cols {
		fv.SetAt(c, v[i])
	}
}

// guard runs fn and converts bounds and missing-data faults into errors.
// Horizon violations and other panics propagate.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if missing, ok := r.(*MissingBarError); ok {
				err = missing
				return
			}
			panic(r)
		}
	}()
	return indicator.Try(fn)
}
