package trigger

import "trading-featuresv1/internal/model"

// Group computes a fixed run of columns in one pass. Fill writes exactly
// len(Names) values into v, in Names order.
type Group struct {
	Names []string
	Fill  func(c *Context, v []float64)
}

// LabelGroup is a run of output columns. In future mode Fill may read bars
// up to the horizon's exit; in past mode every column holds Past.
type LabelGroup struct {
	Names []string
	Past  float64
	// Reach is how many bars past the trigger Fill reads, besides the sell
	// bar of a defined-end exit. Nil means none.
	Reach func(period int) int
	Fill  func(c *Context, v []float64)
}

var lags = []string{"", "mone", "mtwo", "mthree"}

// lagged is name, its three truncations and the differences to them.
func lagged(name string, fn func(w []model.Bar) float64) Group {
	names := make([]string, 0, 7)
	for _, l := range lags {
		names = append(names, name+l)
	}
	for _, l := range lags[1:] {
		names = append(names, name+"diff"+l)
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			for i := range lags {
				v[i] = fn(c.Window(i))
			}
			for i := 1; i < len(lags); i++ {
				v[len(lags)-1+i] = v[0] - v[i]
			}
		},
	}
}

// perBar is name evaluated on the triggering bar and the three before it.
func perBar(name string, fn func(b model.Bar) float64) Group {
	names := make([]string, len(lags))
	for i, l := range lags {
		names[i] = name + l
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			for i := range lags {
				v[i] = fn(c.Bar(i))
			}
		},
	}
}

// horizon pairs a column suffix with the duration it covers.
type horizon struct {
	suffix   string
	duration int
}

// each is one column per horizon, named prefix+suffix. fn receives the
// horizon length in bars.
func each(prefix string, hs []horizon, fn func(c *Context, r int) float64) Group {
	names := make([]string, len(hs))
	for i, h := range hs {
		names[i] = prefix + h.suffix
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			for i, h := range hs {
				v[i] = fn(c, c.Ratio(h.duration))
			}
		},
	}
}

func groupNames(gs []Group) []string {
	var names []string
	for _, g := range gs {
		names = append(names, g.Names...)
	}
	return names
}
