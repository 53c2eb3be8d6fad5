package trigger

import (
	"math"
	"strconv"

	"trading-featuresv1/internal/indicator"
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/numerics"
)

var (
	averages = []horizon{
		{"daily", OneDay}, {"threeday", ThreeDays}, {"weekly", OneWeek}, {"monthly", OneMonth},
	}
	interest = []horizon{
		{"twelve", TwelveHours}, {"day", OneDay}, {"threeday", ThreeDays}, {"week", OneWeek}, {"fort", Fortnight},
	}
	refChanges = []horizon{
		{"one", OneHour}, {"two", TwoHours}, {"six", SixHours}, {"twelve", TwelveHours}, {"twofour", OneDay},
		{"three", ThreeDays}, {"week", OneWeek}, {"fort", Fortnight}, {"month", OneMonth},
	}
	volShares = []horizon{
		{"sixty", OneHour}, {"onetwenty", TwoHours}, {"six", SixHours},
	}
	changes = []horizon{
		{"one", OneHour}, {"two", TwoHours}, {"six", SixHours}, {"twelve", TwelveHours}, {"twofour", OneDay},
		{"twoday", TwoDays}, {"threeday", ThreeDays}, {"fiveday", FiveDays}, {"week", OneWeek},
		{"fort", Fortnight}, {"month", OneMonth},
	}
	stabilities = []horizon{
		{"six", SixHours}, {"twelve", TwelveHours}, {"one", OneDay}, {"three", ThreeDays},
		{"week", OneWeek}, {"fort", Fortnight}, {"month", OneMonth},
	}
	relatives = []horizon{
		{"thirty", HalfHour}, {"sixty", OneHour}, {"onetwenty", TwoHours}, {"twoforty", FourHours},
		{"six", SixHours}, {"twelve", TwelveHours}, {"twentyfour", OneDay}, {"three", ThreeDays},
		{"week", OneWeek}, {"fort", Fortnight}, {"month", OneMonth},
	}
	bands = []horizon{
		{"two", TwoHours}, {"six", SixHours}, {"twelve", TwelveHours}, {"day", OneDay},
	}
	momenta = []horizon{
		{"six", SixHours}, {"twelve", TwelveHours}, {"day", OneDay}, {"threeday", ThreeDays},
		{"week", OneWeek}, {"fort", Fortnight}, {"month", OneMonth},
	}
)

// basicGroups are the columns every trigger records, in schema order.
var basicGroups = []Group{
	{
		Names: []string{"timestamp", "ticker"},
		Fill: func(c *Context, v []float64) {
			v[0] = float64(c.Bar(0).Timestamp)
			v[1] = tickerCode(c.Instrument)
		},
	},
	each("pd", suffixed(averages, "avg"), func(c *Context, r int) float64 {
		return numerics.PC(indicator.WeightedAverage(c.Before(r)), c.Bar(0).Close)
	}),
	volumeGroup(),
	each("relativeinterest", interest, func(c *Context, r int) float64 {
		vol := indicator.VolSum(c.Before(r))
		prev := indicator.VolSum(c.Span(c.Index()-2*r, c.Index()-r))
		if prev == 0 {
			return math.Min(100, vol)
		}
		return vol / prev
	}),
	perBar("ratiopricedeltatovol", func(b model.Bar) float64 {
		if b.Volume == 0 {
			return 0
		}
		return (b.Close - b.Open) / b.Volume
	}),
	{
		Names: []string{"pcbtcthirty", "pcbtcthirtymone"},
		Fill: func(c *Context, v []float64) {
			v[0] = c.Ref(0).Delta()
			v[1] = c.Ref(1).Delta()
		},
	},
	each("pcbtc", refChanges, func(c *Context, r int) float64 {
		return numerics.PC(c.Ref(r-1).Open, c.Ref(0).Close)
	}),
	perBar("pcthirty", model.Bar.Delta),
	volShareGroup(),
	each("pvolone", volShares, func(c *Context, r int) float64 {
		return numerics.Perc(indicator.VolSum(c.Through(r)), dailyVolume(c))
	}),
	{
		Names: []string{"npumpfive", "ndumpfive"},
		Fill: func(c *Context, v []float64) {
			w := c.Before(c.Ratio(FiveDays))
			v[0] = indicator.TotalPumps(w)
			v[1] = indicator.TotalDumps(w)
		},
	},
	each("pc", changes, func(c *Context, r int) float64 {
		return numerics.PC(c.Bar(r-1).Open, c.Bar(0).Close)
	}),
	rangeGroup(),
	{
		Names: []string{"labtcpriceday", "lvoltwofour", "labtcpriceonetofourdaymone"},
		Fill: func(c *Context, v []float64) {
			day := c.Ratio(OneDay)
			wa := indicator.WeightedAverage(c.Through(day))
			prior := indicator.WeightedAverage(c.Span(c.Index()-5*day+1, c.Index()-day+1))
			v[0] = logOf(wa)
			v[1] = math.Max(0, logOf(dailyVolume(c)))
			v[2] = math.Min(3, logOf(wa/prior))
		},
	},
	perBar("shadowtobodythirty", model.Bar.ShadowToBody),
	perBar("shadowpositionthirty", model.Bar.ShadowPosition),
	each("stab", stabilities, func(c *Context, r int) float64 {
		return indicator.Stability(c.Before(r))
	}),
	each("pdbitcoin", relatives, func(c *Context, r int) float64 {
		own := numerics.PC(c.Bar(r-1).Open, c.Bar(0).Close)
		ref := numerics.PC(c.Ref(r-1).Open, c.Ref(0).Close)
		return own - ref
	}),
	perBar("waposthirty", model.Bar.WeightAveragePos),
	aroonGroup(),
	lagged("rsi", indicator.RSI),
	lagged("stochrsi", indicator.StochRSI),
	tmfGroup(),
	bandGroup("percoutsideband", indicator.PercOutsideBollingerBand),
	bandGroup("percaboveband", indicator.PercAboveBollingerBand),
	bandGroup("percbelowband", indicator.PercBelowBollingerBand),
	lagged("standardiseddpo", indicator.StandardisedDPO),
	lagged("rvi", indicator.RVI),
	lagged("rvihist", indicator.RVIHist),
	lagged("stochastic", indicator.Stochastic),
	lagged("stochastichist", indicator.StochasticHist),
	momentumGroup(),
	{
		Names: []string{"ichimoku", "ichimokumone", "ichimokumtwo"},
		Fill: func(c *Context, v []float64) {
			for i := range v {
				v[i] = indicator.IchimokuSignal(c.Window(i))
			}
		},
	},
	each("pmmcichimoku", momenta, func(c *Context, r int) float64 {
		return trend(indicator.IchimokuSignalGraph(c.Window(0), r))
	}),
}

func suffixed(hs []horizon, suffix string) []horizon {
	out := make([]horizon, len(hs))
	for i, h := range hs {
		out[i] = horizon{h.suffix + suffix, h.duration}
	}
	return out
}

// tickerCode encodes an instrument as the decimal char codes of its name
// read as one number, e.g. "AB" is 6566.
func tickerCode(instrument string) float64 {
	var digits []byte
	for _, r := range instrument {
		digits = strconv.AppendInt(digits, int64(r), 10)
	}
	v, err := strconv.ParseFloat(string(digits), 64)
	if err != nil {
		return 0
	}
	return v
}

// dailyVolume is the volume of the day before the triggering bar.
func dailyVolume(c *Context) float64 {
	return indicator.VolSum(c.Before(c.Ratio(OneDay)))
}

// logOf is the natural log, 0 for non-positive or undefined input.
func logOf(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	return math.Log(x)
}

// trend is how linearly xs moves with time, in [-1, 1].
func trend(xs []float64) float64 {
	return numerics.Pearson(numerics.Time(len(xs)), xs)
}

func volumeGroup() Group {
	return Group{
		Names: []string{"sdvolthirty", "pvolonethirty"},
		Fill: func(c *Context, v []float64) {
			mean, std := indicator.VolStat(c.Before(c.Ratio(ThreeDays)))
			if std != 0 {
				v[0] = (c.Bar(0).Volume - mean) / std
			}
			v[1] = numerics.Perc(c.Bar(0).Volume, dailyVolume(c))
		},
	}
}

// volShareGroup is the lagged volume columns measured against the
// three-day volume statistics and the daily volume of the triggering bar.
func volShareGroup() Group {
	return Group{
		Names: []string{
			"sdvolthirtymone", "sdvolthirtymtwo", "sdvolthirtymthree",
			"pvolonethirtymone", "pvolonethirtymtwo", "pvolonethirtymthree",
		},
		Fill: func(c *Context, v []float64) {
			mean, std := indicator.VolStat(c.Before(c.Ratio(ThreeDays)))
			daily := dailyVolume(c)
			for i := 1; i <= 3; i++ {
				vol := c.Bar(i).Volume
				v[i-1] = 0
				if std != 0 {
					v[i-1] = (vol - mean) / std
				}
				v[i+2] = numerics.Perc(vol, daily)
			}
		},
	}
}

// rangeGroup places the close against the highs, lows and averages of the
// trailing day, three days, week, fortnight and month.
func rangeGroup() Group {
	type col struct {
		name     string
		duration int
		fn       func(w []model.Bar) float64
	}
	cols := []col{
		{"pddh", OneDay, indicator.High},
		{"pddm", OneDay, indicator.WeightedAverage},
		{"pddl", OneDay, indicator.Low},
		{"pdthreedh", ThreeDays, indicator.High},
		{"pdthreedl", ThreeDays, indicator.Low},
		{"pdwh", OneWeek, indicator.High},
		{"pdwl", OneWeek, indicator.Low},
		{"pdfh", Fortnight, indicator.High},
		{"pdfl", Fortnight, indicator.Low},
		{"pdmh", OneMonth, indicator.High},
		{"pdml", OneMonth, indicator.Low},
	}
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			now := c.Bar(0).Close
			for i, col := range cols {
				v[i] = numerics.PC(col.fn(c.Through(c.Ratio(col.duration))), now)
			}
		},
	}
}

// aroonGroup interleaves up, down and their spread for each truncation.
func aroonGroup() Group {
	series := []string{"aroonup", "aroondown", "aroondelta"}
	var names []string
	for _, l := range lags {
		for _, s := range series {
			names = append(names, s+l)
		}
		if l != "" {
			for _, s := range series {
				names = append(names, s+"diff"+l)
			}
		}
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			var base [3]float64
			k := 0
			for i := range lags {
				w := c.Window(i)
				up, down := indicator.AroonUp(w), indicator.AroonDown(w)
				cur := [3]float64{up, down, up - down}
				if i == 0 {
					base = cur
				}
				k += copy(v[k:], cur[:])
				if i > 0 {
					for j := range cur {
						v[k+j] = base[j] - cur[j]
					}
					k += len(cur)
				}
			}
		},
	}
}

func tmfGroup() Group {
	names := []string{"tmf"}
	for _, l := range lags[1:] {
		names = append(names, "tmf"+l, "tmfdiff"+l)
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			v[0] = indicator.TMF(c.Window(0))
			for i := 1; i < len(lags); i++ {
				lag := indicator.TMF(c.Window(i))
				v[2*i-1] = lag
				v[2*i] = v[0] - lag
			}
		},
	}
}

func bandGroup(prefix string, fn func(w []model.Bar, length int) float64) Group {
	return each(prefix, bands, func(c *Context, r int) float64 {
		return fn(c.Window(0), r)
	})
}

// momentumGroup correlates price, volume and money flow with time over each
// momentum horizon. The two shortest horizons exclude the triggering bar.
func momentumGroup() Group {
	fields := []string{"pmmcprice", "pmmcvol", "pmmcdiffvolprice", "pmmctmf", "pmmcdifftmfprice"}
	var names []string
	for _, h := range momenta {
		for _, f := range fields {
			names = append(names, f+h.suffix)
		}
	}
	return Group{
		Names: names,
		Fill: func(c *Context, v []float64) {
			for i, h := range momenta {
				r := c.Ratio(h.duration)
				var w []model.Bar
				if h.duration < OneDay {
					w = c.Before(r)
				} else {
					w = c.Through(r)
				}
				price := trend(indicator.WeightedAverages(w))
				vol := trend(indicator.Volumes(w))
				tmf := trend(indicator.TMFGraph(c.Window(0), r))
				copy(v[i*len(fields):], []float64{price, vol, vol - price, tmf, tmf - price})
			}
		},
	}
}
