package trigger

import (
	"trading-featuresv1/internal/indicator"
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

// Label column names the presets refer to.
const (
	LabelSell             = "percentageatsell"
	LabelMax              = "maxpercentage"
	LabelDidPump          = "didpump"
	LabelDidPumpImmediate = "didpumpimmediate"
)

const (
	didPumpRise        = 15.0 // percent above the trigger open within three days
	immediateRiseShort = 5.0  // percent within two hours
	immediateRiseLong  = 15.0 // percent within six hours
	suddenPumpBars     = 6
)

// definedEnd describes the trade from the open after the trigger to the
// open after the sell bar.
var definedEnd = LabelGroup{
	Names: []string{
		LabelSell, LabelMax, "minpercentage",
		"minperiod", "maxperiod", "sellperiod",
		"minperiodopen", "maxperiodopen",
	},
	Fill: func(c *Context, v []float64) {
		index, sell := c.Index(), c.Horizon().Sell
		w := c.Ahead(index+1, sell+1)
		purchase := c.AheadBar(index + 1).Open
		v[0] = numerics.PC(purchase, c.AheadBar(sell+1).Open)
		v[1] = numerics.PC(purchase, indicator.High(w))
		v[2] = numerics.PC(purchase, indicator.Low(w))
		v[3] = float64(indicator.LowOpenIndex(w) + 1)
		v[4] = float64(indicator.HighOpenIndex(w) + 1)
		v[5] = float64(sell - index + 1)
		v[6] = numerics.PC(purchase, indicator.LowOpen(w))
		v[7] = numerics.PC(purchase, indicator.HighOpen(w))
	},
}

// didPump is 1 when some close of the next three days ends more than 15%
// above the trigger bar's open, else -1.
var didPump = LabelGroup{
	Names: []string{LabelDidPump},
	Past:  -1,
	Reach: func(period int) int { return Ratio(ThreeDays, period) },
	Fill: func(c *Context, v []float64) {
		index := c.Index()
		r := Ratio(ThreeDays, c.Period)
		closes := indicator.Closes(c.Ahead(index+1, index+1+r))
		v[0] = -1
		if numerics.PC(c.Bar(0).Open, numerics.High(closes)) > didPumpRise {
			v[0] = 1
		}
	},
}

// didPumpImmediate is 1 when the high rises 5% within two hours and 15%
// within six hours of the trigger bar's open, else -1.
var didPumpImmediate = LabelGroup{
	Names: []string{LabelDidPumpImmediate},
	Past:  -1,
	Reach: func(period int) int { return Ratio(SixHours, period) },
	Fill: func(c *Context, v []float64) {
		index := c.Index()
		open := c.Bar(0).Open
		short := indicator.High(c.Ahead(index+1, index+1+Ratio(TwoHours, c.Period)))
		long := indicator.High(c.Ahead(index+1, index+1+Ratio(SixHours, c.Period)))
		v[0] = -1
		if numerics.PC(open, short) > immediateRiseShort && numerics.PC(open, long) > immediateRiseLong {
			v[0] = 1
		}
	},
}

var suddenPumpNames = []string{"thirty", "sixty", "ninety", "onetwenty", "onefifty", "oneeighty"}

// suddenPump is the change from the open after the trigger to each of the
// next six closes.
var suddenPump = LabelGroup{
	Names: func() []string {
		names := make([]string, len(suddenPumpNames))
		for i, n := range suddenPumpNames {
			names[i] = "percentageat" + n
		}
		return names
	}(),
	Reach: func(int) int { return suddenPumpBars },
	Fill: func(c *Context, v []float64) {
		index := c.Index()
		purchase := c.AheadBar(index + 1).Open
		for k := 1; k <= suddenPumpBars; k++ {
			v[k-1] = numerics.PC(purchase, c.AheadBar(index+k).Close)
		}
	},
}

// fixedExit sells n bars after the trigger.
func fixedExit(n int) func(bars []model.Bar, index int) int {
	return func(_ []model.Bar, index int) int { return index + n }
}

// labelNames lists every label column of gs; used to mark the ones a preset
// does not train on.
func labelNames(gs []LabelGroup) []string {
	var names []string
	for _, g := range gs {
		names = append(names, g.Names...)
	}
	return names
}
