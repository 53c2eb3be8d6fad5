package trigger

import (
	"fmt"

	"trading-featuresv1/internal/dataset"
)

// Names lists the registered variants in registration order.
func Names() []string {
	names := make([]string, len(variants))
	for i, s := range variants {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the registered variant called name.
func Lookup(name string) (Spec, bool) {
	for _, s := range variants {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// NewByName builds a trigger for a registered variant.
func NewByName(name string) (*Trigger, error) {
	s, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("trigger: unknown variant %q", name)
	}
	return New(s)
}

// Preset selects which label a dataset trains on.
type Preset struct {
	Name   string
	Output string
}

// Presets are the supported training targets.
var Presets = []Preset{
	{Name: "sell", Output: LabelSell},
	{Name: "max", Output: LabelMax},
	{Name: "didpump", Output: LabelDidPump},
	{Name: "didpumpimmediate", Output: LabelDidPumpImmediate},
}

// PresetByName returns the preset called name.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// ApplyPreset resets the roles of the trigger's dataset so that p.Output is
// the only Output and the remaining label columns, plus the ticker, are
// Unused.
func (t *Trigger) ApplyPreset(p Preset) error {
	return applyPreset(t.set, t.LabelNames(), p)
}

func applyPreset(set *dataset.DataSet, labels []string, p Preset) error {
	found := false
	for _, l := range labels {
		if l == p.Output {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("preset %s: %w", p.Name, &dataset.SchemaError{Op: "preset", Name: p.Output, Err: dataset.ErrUnknownFeature})
	}
	set.WipeMarks()
	if err := set.MarkOutput(p.Output); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	for _, l := range append(append([]string{}, labels...), "ticker") {
		if l == p.Output {
			continue
		}
		if err := set.MarkUnused(l); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return nil
}
