// Package resample merges bars of a fine period into bars of a coarser one.
// A bar belongs to the bucket ts - ts%period; a bucket is finalized when a
// bar of a later bucket arrives.
package resample

import (
	"fmt"
	"log"

	"trading-featuresv1/internal/model"
)

// Builder accumulates bars into period-sized buckets.
// Not safe for concurrent use.
type Builder struct {
	period  int64
	bucket  int64
	bar     model.Bar
	wsum    float64 // Σ weightedAverage·volume of the forming bar
	started bool

	// OnStale is called when a bar behind the forming bucket is dropped (optional).
	OnStale func(b model.Bar)
}

// New creates a builder for period seconds.
func New(period int) (*Builder, error) {
	if period <= 0 {
		return nil, fmt.Errorf("resample: invalid period %d", period)
	}
	return &Builder{period: int64(period)}, nil
}

// Add merges b into the forming bar. When b opens a new bucket the previous
// bar is finalized and returned with ok set.
func (r *Builder) Add(b model.Bar) (done model.Bar, ok bool) {
	bucket := b.Timestamp - b.Timestamp%r.period

	if r.started && bucket < r.bucket {
		if r.OnStale != nil {
			r.OnStale(b)
		}
		return model.Bar{}, false
	}

	if r.started && bucket > r.bucket {
		done, ok = r.finalize(), true
		r.started = false
	}

	if !r.started {
		r.bucket = bucket
		r.bar = b
		r.bar.Timestamp = bucket
		r.wsum = b.WeightedAverage * b.Volume
		r.started = true
		return done, ok
	}

	// Same bucket: merge OHLCV
	fb := &r.bar
	if b.High > fb.High {
		fb.High = b.High
	}
	if b.Low < fb.Low {
		fb.Low = b.Low
	}
	fb.Close = b.Close
	fb.Volume += b.Volume
	fb.QuoteVolume += b.QuoteVolume
	r.wsum += b.WeightedAverage * b.Volume
	return done, ok
}

// Flush finalizes the forming bar, if any.
func (r *Builder) Flush() (model.Bar, bool) {
	if !r.started {
		return model.Bar{}, false
	}
	r.started = false
	return r.finalize(), true
}

// finalize sets the volume-weighted average of the forming bar. A bucket
// without volume takes the midpoint of its range.
func (r *Builder) finalize() model.Bar {
	out := r.bar
	if out.Volume > 0 {
		out.WeightedAverage = r.wsum / out.Volume
	} else {
		out.WeightedAverage = (out.High + out.Low) / 2
	}
	return out
}

// Aggregate resamples an ordered series to period seconds. Bars behind the
// forming bucket are dropped and logged.
func Aggregate(bars []model.Bar, period int) ([]model.Bar, error) {
	r, err := New(period)
	if err != nil {
		return nil, err
	}
	dropped := 0
	r.OnStale = func(model.Bar) { dropped++ }

	out := make([]model.Bar, 0, len(bars)/max(1, period/inputPeriod(bars))+1)
	for _, b := range bars {
		if done, ok := r.Add(b); ok {
			out = append(out, done)
		}
	}
	if done, ok := r.Flush(); ok {
		out = append(out, done)
	}
	if dropped > 0 {
		log.Printf("[resample] dropped %d out-of-order bars at period %d", dropped, period)
	}
	return out, nil
}

// inputPeriod estimates the period of bars from its first two timestamps.
func inputPeriod(bars []model.Bar) int {
	if len(bars) < 2 {
		return 1
	}
	if d := int(bars[1].Timestamp - bars[0].Timestamp); d > 0 {
		return d
	}
	return 1
}
