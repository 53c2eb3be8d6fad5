package trigger

import (
	"math"

	"trading-featuresv1/internal/indicator"
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

const (
	rsiBuy  = 30.0
	rsiSell = 70.0

	emaBelowLength = 10
	emaBelowDip    = -2.0 // percent below the EMA

	maFast = 30 // EMA
	maSlow = 50 // SMA

	steadyPumpRise     = 7.0
	steadyPumpLookback = 48

	sidewaysBand = 3.5 // percent around the three-day average
)

// pumpLabels are the outcome columns of the always-on variants.
var pumpLabels = []LabelGroup{didPump, didPumpImmediate, definedEnd}

var variants = []Spec{
	{
		Name:   "rsi",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			return indicator.RSI(c.Window(0)) <= rsiBuy && indicator.RSI(c.Window(1)) >= rsiBuy
		},
		Exit: func(bars []model.Bar, index int) int {
			return indicator.RSINextSellsIndex(bars, index, rsiSell)
		},
		Labels: []LabelGroup{definedEnd},
	},
	{
		Name:   "emabelow",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			now, prev, before := c.Bar(0), c.Bar(1), c.Bar(2)
			dip := numerics.PC(indicator.EMA(c.Window(0), emaBelowLength), now.Close)
			return dip < emaBelowDip && prev.Close < now.Close && before.Close > prev.Close
		},
		Exit: func(bars []model.Bar, index int) int {
			return indicator.ScanForward(bars, index, func(w []model.Bar) bool {
				return indicator.EMA(w, emaBelowLength) <= w[len(w)-1].Close
			})
		},
		Labels: []LabelGroup{definedEnd},
	},
	{
		Name:   "suddenpump",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			return c.Bar(0).Delta() > indicator.PumpDelta
		},
		Exit:   fixedExit(suddenPumpBars),
		Labels: []LabelGroup{definedEnd, suddenPump},
	},
	{
		Name:   "steadypump",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			if !wasSteadyPump(c.Window(0)) {
				return false
			}
			for i := 1; i <= steadyPumpLookback; i++ {
				if wasSteadyPump(c.Window(i)) {
					return false
				}
			}
			return true
		},
		Exit:   fixedExit(suddenPumpBars),
		Labels: []LabelGroup{definedEnd, suddenPump},
	},
	{
		Name:        "all",
		Period:      HalfHour,
		IsTriggered: always,
		Exit:        fixedExit(suddenPumpBars),
		Labels:      pumpLabels,
	},
	{
		Name:        "all-medium",
		Period:      TwoHours,
		IsTriggered: always,
		Exit:        fixedExit(suddenPumpBars),
		Labels:      pumpLabels,
	},
	{
		Name:   "sideways",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			r := c.Ratio(ThreeDays)
			wa := indicator.WeightedAverage(c.Through(r + 1))
			for _, b := range c.Before(r) {
				if math.Abs(numerics.PC(wa, b.WeightedAverage)) >= sidewaysBand {
					return false
				}
			}
			return true
		},
		Labels: []LabelGroup{didPump, didPumpImmediate},
	},
	{
		Name:   "accumulation",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			for _, v := range indicator.TMFGraph(c.Window(0), c.Ratio(Fortnight)) {
				if v >= 0 {
					return false
				}
			}
			return true
		},
		Labels: []LabelGroup{didPump},
	},
	{
		Name:   "negative-tmf",
		Period: HalfHour,
		IsTriggered: func(c *Context) bool {
			g := indicator.TMFGraph(c.Window(0), c.Ratio(ThreeDays))
			for _, v := range g[:len(g)-1] {
				if v >= 0 {
					return false
				}
			}
			return g[len(g)-1] > 0
		},
		Labels: []LabelGroup{didPump},
	},
	{
		Name:        "macross",
		Period:      HalfHour,
		IsTriggered: crossedAbove,
		Exit: func(bars []model.Bar, index int) int {
			return indicator.ScanForward(bars, index, func(w []model.Bar) bool {
				lastEMA, lastSMA := movingAverages(w[:len(w)-1])
				curEMA, curSMA := movingAverages(w)
				return lastEMA > lastSMA && curEMA < curSMA
			})
		},
		Labels: []LabelGroup{definedEnd},
	},
	{
		Name:        "macross-tiny",
		Period:      FiveMinutes,
		IsTriggered: crossedAbove,
		Exit: func(bars []model.Bar, index int) int {
			return indicator.ScanForward(bars, index, func(w []model.Bar) bool {
				ema, sma := movingAverages(w)
				return ema < sma
			})
		},
		Labels: []LabelGroup{definedEnd},
	},
	{
		Name:   "ichimoku-tiny",
		Period: FiveMinutes,
		IsTriggered: func(c *Context) bool {
			return indicator.IchimokuSignal(c.Window(1)) < 0 && indicator.IchimokuSignal(c.Window(0)) > 0
		},
		Exit: func(bars []model.Bar, index int) int {
			return indicator.ScanForward(bars, index, func(w []model.Bar) bool {
				return indicator.IchimokuSignal(w) < 0
			})
		},
		Labels: []LabelGroup{definedEnd},
	},
	{
		Name:   "macd-short",
		Period: QuarterHour,
		IsTriggered: func(c *Context) bool {
			return indicator.MACDHistTurnedUp(c.Window(0))
		},
		Extra: []Group{macdShortGroup},
		Exit: func(bars []model.Bar, index int) int {
			return indicator.MACDHistNextSellsIndex(bars, index)
		},
		Labels: []LabelGroup{definedEnd},
	},
}

func always(*Context) bool { return true }

// wasSteadyPump: three rising bars adding up to a steadyPumpRise move that
// closes at the top of the last day of bars.
func wasSteadyPump(w []model.Bar) bool {
	n := len(w)
	numerics.Need("steady pump", steadyPumpLookback, n)
	for _, b := range w[n-3:] {
		if b.Delta() <= 0 {
			return false
		}
	}
	if numerics.PC(w[n-3].Open, w[n-1].Close) < steadyPumpRise {
		return false
	}
	return w[n-1].Close >= indicator.High(w[n-steadyPumpLookback:n-1])
}

func movingAverages(w []model.Bar) (ema, sma float64) {
	return indicator.EMA(w, maFast), indicator.SMA(w, maSlow)
}

// crossedAbove fires when the fast EMA crosses above the slow SMA.
func crossedAbove(c *Context) bool {
	lastEMA, lastSMA := movingAverages(c.Window(1))
	curEMA, curSMA := movingAverages(c.Window(0))
	return lastEMA < lastSMA && curEMA > curSMA
}

// macdShortGroup describes the MACD histogram cycle the trough closes: the
// last peak before it and the trough before that peak.
var macdShortGroup = Group{
	Names: []string{
		"numsellpeak", "numbuystrough",
		"pdlastsell", "stanmacdsell", "stanmacddiffsell", "pdpricemacdsell",
		"pdlastbuy", "stanmacdpastbuy", "stanmacd", "stanmacddiffpastbuy", "pdpricemacdpastbuy",
		"stanmacddiff",
	},
	Fill: func(c *Context, v []float64) {
		index := c.Index()
		upto := func(i int) []model.Bar { return c.Span(0, i) }
		at := func(i int) model.Bar { return c.Bar(index - i) }
		now := at(index).Close

		v[0] = indicator.MACDHistSells(c.Window(1))
		v[1] = indicator.MACDHistBuys(c.Window(1))

		sell := index - indicator.MACDHistSellsOffset(c.Window(0))
		stanSell := indicator.StanMACDHist(upto(sell + 1))
		v[2] = numerics.PC(at(sell+1).Open, now)
		v[3] = stanSell
		v[4] = stanSell - indicator.StanMACDHist(upto(sell))
		v[5] = numerics.PC(at(sell-1).Close, at(sell).Close)

		buy := sell - indicator.MACDHistBuysOffset(upto(sell+1))
		stanBuy := indicator.StanMACDHist(upto(buy + 1))
		stan := indicator.StanMACDHist(c.Window(0))
		v[6] = numerics.PC(at(buy+1).Open, now)
		v[7] = stanBuy
		v[8] = stan
		v[9] = indicator.StanMACDHist(upto(buy)) - stanBuy
		v[10] = numerics.PC(at(buy-1).Close, at(buy).Close)
		v[11] = stan - indicator.StanMACDHist(c.Window(1))
	},
}
