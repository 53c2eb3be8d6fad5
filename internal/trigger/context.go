package trigger

import (
	"fmt"

	"trading-featuresv1/internal/indicator"
	"trading-featuresv1/internal/model"
)

// Horizon bounds which bars a feature computation may read.
//
// Knowledge is the triggering index: past accessors never read beyond it.
// Exit is the last bar label code may read in future mode; in past mode it
// equals Knowledge. Sell is the exit index of a defined-end label, or -1.
type Horizon struct {
	Knowledge int
	Sell      int
	Exit      int
}

// Past is the inference horizon at index: nothing after index is visible.
func Past(index int) Horizon {
	return Horizon{Knowledge: index, Sell: -1, Exit: index}
}

// Future reports whether label columns are computed from bars after Knowledge.
func (h Horizon) Future() bool { return h.Exit > h.Knowledge }

// MissingBarError reports a reference bar absent at a timestamp the
// instrument series has.
type MissingBarError struct {
	Index     int
	Timestamp int64
}

func (e *MissingBarError) Error() string {
	return fmt.Sprintf("reference bar missing at index %d (ts %d)", e.Index, e.Timestamp)
}

// Context is what feature code sees while filling one vector.
// Reads outside the horizon are programming errors and panic with a plain
// string; reads before the start of the series panic with
// *indicator.OutOfBoundsError.
type Context struct {
	Instrument string
	Period     int

	bars []model.Bar
	ref  []model.Bar
	h    Horizon
}

func newContext(instrument string, period int, bars, ref []model.Bar, h Horizon) *Context {
	return &Context{Instrument: instrument, Period: period, bars: bars, ref: ref, h: h}
}

// Index is the triggering bar.
func (c *Context) Index() int { return c.h.Knowledge }

// Horizon returns the read bounds of this computation.
func (c *Context) Horizon() Horizon { return c.h }

// Ratio is the number of bars covering duration at this series' period.
func (c *Context) Ratio(duration int) int { return Ratio(duration, c.Period) }

// Window is the causal window bars[:index+1-back]: the series as it looked
// back bars ago.
func (c *Context) Window(back int) []model.Bar {
	return indicator.Span(c.bars, 0, c.h.Knowledge+1-back)
}

// Bar is the bar back bars before the triggering one.
func (c *Context) Bar(back int) model.Bar {
	return indicator.At(c.bars, c.h.Knowledge-back)
}

// Span is bars[from:to] in absolute indexes, bounded by the knowledge horizon.
func (c *Context) Span(from, to int) []model.Bar {
	if to-1 > c.h.Knowledge {
		panic(fmt.Sprintf("trigger: past read of bar %d beyond index %d", to-1, c.h.Knowledge))
	}
	return indicator.Span(c.bars, from, to)
}

// Before is the n bars preceding the triggering bar.
func (c *Context) Before(n int) []model.Bar {
	return c.Span(c.h.Knowledge-n, c.h.Knowledge)
}

// Through is the n bars ending with the triggering bar.
func (c *Context) Through(n int) []model.Bar {
	return c.Span(c.h.Knowledge+1-n, c.h.Knowledge+1)
}

// Ref is the reference bar aligned with Bar(back).
func (c *Context) Ref(back int) model.Bar {
	i := c.h.Knowledge - back
	b := indicator.At(c.bars, i)
	r := indicator.At(c.ref, i)
	if r.Timestamp != b.Timestamp {
		panic(&MissingBarError{Index: i, Timestamp: b.Timestamp})
	}
	return r
}

// Ahead is bars[from:to] in absolute indexes, bounded by the exit horizon.
// Only label code calls it.
func (c *Context) Ahead(from, to int) []model.Bar {
	if to-1 > c.h.Exit {
		panic(fmt.Sprintf("trigger: future read of bar %d beyond exit %d", to-1, c.h.Exit))
	}
	return indicator.Span(c.bars, from, to)
}

// AheadBar is bars[i], bounded by the exit horizon.
func (c *Context) AheadBar(i int) model.Bar {
	if i > c.h.Exit {
		panic(fmt.Sprintf("trigger: future read of bar %d beyond exit %d", i, c.h.Exit))
	}
	return indicator.At(c.bars, i)
}
