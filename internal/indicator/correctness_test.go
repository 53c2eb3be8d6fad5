package indicator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"trading-featuresv1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func bar(close float64) model.Bar {
	return model.Bar{
		Open: close, High: close + 1, Low: close - 1, Close: close,
		Volume: 10, WeightedAverage: close,
	}
}

func series(closes ...float64) []model.Bar {
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = bar(c)
		out[i].Timestamp = int64(i) * 1800
	}
	return out
}

func ramp(n int, start, step float64) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return series(closes...)
}

func noisy(n int, seed int64) []model.Bar {
	r := rand.New(rand.NewSource(seed))
	out := make([]model.Bar, n)
	price := 100.0
	for i := range out {
		open := price
		price *= 1 + (r.Float64()-0.5)*0.04
		hi := math.Max(open, price) * (1 + r.Float64()*0.01)
		lo := math.Min(open, price) * (1 - r.Float64()*0.01)
		out[i] = model.Bar{
			Timestamp: int64(i) * 1800, Open: open, High: hi, Low: lo, Close: price,
			Volume: 50 + r.Float64()*100, WeightedAverage: (hi + lo + price) / 3,
		}
	}
	return out
}

func wave(n int) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/8)
	}
	return series(closes...)
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// Moving averages
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Closes: 100, 102, 104, 103, 105
	// SMA(3) of the last three: (104+103+105)/3 = 104
	w := series(100, 102, 104, 103, 105)
	assertClose(t, "SMA(3)", SMA(w, 3), 104, 1e-9)
	assertClose(t, "SMA(5)", SMA(w, 5), 102.8, 1e-9)
}

func TestEMA_ConstantWindow(t *testing.T) {
	w := series(make([]float64, 60)...)
	for i := range w {
		w[i] = bar(42)
	}
	for _, l := range []int{3, 10, 26} {
		assertClose(t, "EMA constant", EMA(w, l), 42, 1e-9)
	}
}

func TestEMA_ReadsOnlyTrailingWindow(t *testing.T) {
	// length 2 reads the last 4 closes: seed SMA(1,2)=1.5, then 2.5, then 3.5
	w := series(900, -50, 1, 2, 3, 4)
	assertClose(t, "EMA(2)", EMA(w, 2), 3.5, 1e-9)
}

// ────────────────────────────────────────────────────────────
// RSI family
// ────────────────────────────────────────────────────────────

func TestRSI_MonotoneWindows(t *testing.T) {
	assertClose(t, "RSI rising", RSI(ramp(40, 100, 1)), 100, 0)
	assertClose(t, "RSI falling", RSI(ramp(40, 100, -1)), 0, 0)
	assertClose(t, "RSI flat", RSI(ramp(40, 100, 0)), 50, 0)
}

func TestRSI_NeedsTwiceLengthPlusOne(t *testing.T) {
	err := Try(func() { RSI(ramp(2*RSIPeriods, 100, 1)) })
	var oob *OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("expected *OutOfBoundsError, got %v", err)
	}
	if err := Try(func() { RSI(ramp(2*RSIPeriods+1, 100, 1)) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStochRSI_Bounded(t *testing.T) {
	w := noisy(200, 7)
	for end := 60; end <= len(w); end += 7 {
		v := StochRSI(w[:end])
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Fatalf("StochRSI at %d = %v, want [0,1]", end, v)
		}
	}
	// Constant RSI range uses a minimal denominator rather than NaN.
	if v := StochRSI(ramp(60, 100, 1)); v != 0 {
		t.Errorf("StochRSI of pinned RSI = %v, want 0", v)
	}
}

func TestRSINextSellsIndex_NeverReadsPastResult(t *testing.T) {
	w := append(ramp(40, 100, -1), ramp(40, 61, 1)...)
	idx := RSINextSellsIndex(w, 40, 70)
	if idx <= 40 {
		t.Fatalf("index %d must be after start", idx)
	}
	if got := RSINextSellsIndex(w[:idx+1], 40, 70); got != idx {
		t.Errorf("truncated scan = %d, want %d", got, idx)
	}
	if RSI(w[:idx+1]) <= 70 {
		t.Errorf("RSI at exit = %v, want > 70", RSI(w[:idx+1]))
	}
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_ConstantIsZero(t *testing.T) {
	w := ramp(120, 50, 0)
	assertClose(t, "MACD", MACD(w), 0, 1e-12)
	assertClose(t, "MACDHist", MACDHist(w), 0, 1e-12)
	assertClose(t, "StanMACDHist", StanMACDHist(w), 0, 1e-12)
}

func TestMACDHistNextSellsIndex_IsPeakAndCausal(t *testing.T) {
	w := wave(400)
	var idx int
	if err := Try(func() { idx = MACDHistNextSellsIndex(w, 100) }); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	cur, prev, lst := MACDHist(w[:idx+1]), MACDHist(w[:idx]), MACDHist(w[:idx-1])
	if !isPeak(cur, prev, lst) {
		t.Errorf("index %d is not a peak: %v %v %v", idx, lst, prev, cur)
	}
	if got := MACDHistNextSellsIndex(w[:idx+1], 100); got != idx {
		t.Errorf("truncated scan = %d, want %d", got, idx)
	}
}

func TestMACDHistScanners_OnWave(t *testing.T) {
	w := wave(400)
	if err := Try(func() {
		if off := MACDHistSellsOffset(w); off <= 0 {
			t.Errorf("sells offset = %d, want > 0", off)
		}
		if off := MACDHistBuysOffset(w); off <= 0 {
			t.Errorf("buys offset = %d, want > 0", off)
		}
		if n := MACDHistSells(w); n < 0 {
			t.Errorf("sells = %v", n)
		}
		if n := MACDHistBuys(w); n < 0 {
			t.Errorf("buys = %v", n)
		}
	}); err != nil {
		t.Fatalf("scanner ran out of history: %v", err)
	}
}

// ────────────────────────────────────────────────────────────
// Bands, flows, oscillators
// ────────────────────────────────────────────────────────────

func TestPercBollingerBands_AlwaysInRange(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		w := noisy(150, seed)
		for _, l := range []int{1, 4, 12, 48} {
			for name, v := range map[string]float64{
				"above":   PercAboveBollingerBand(w, l),
				"below":   PercBelowBollingerBand(w, l),
				"outside": PercOutsideBollingerBand(w, l),
			} {
				if v < 0 || v > 100 || math.IsNaN(v) {
					t.Errorf("seed %d length %d %s = %v, want [0,100]", seed, l, name, v)
				}
			}
		}
	}
}

func TestPercAboveBollingerBand_ZeroRangeBarsAreBinary(t *testing.T) {
	// 20 flat bars then a zero-range jump far above the band.
	w := make([]model.Bar, 21)
	for i := range w {
		w[i] = model.Bar{Open: 10, High: 10, Low: 10, Close: 10, Volume: 1, WeightedAverage: 10}
	}
	w[20] = model.Bar{Open: 20, High: 20, Low: 20, Close: 20, Volume: 1, WeightedAverage: 20}
	// The jump is part of its own band window, so SMA=10.5 and 2*std=2*sqrt(5)=4.47;
	// high 20 is still above 14.97 and counts as fully outside.
	assertClose(t, "perc above", PercAboveBollingerBand(w, 1), 100, 1e-9)
	assertClose(t, "perc below", PercBelowBollingerBand(w, 1), 0, 1e-9)
}

func TestTMF_Bounds(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		w := noisy(120, seed)
		v := TMF(w)
		if v < -1 || v > 1 || math.IsNaN(v) {
			t.Errorf("seed %d TMF = %v, want [-1,1]", seed, v)
		}
	}
	// No range anywhere: every AD point is undefined.
	flat := make([]model.Bar, 60)
	for i := range flat {
		flat[i] = model.Bar{Open: 5, High: 5, Low: 5, Close: 5, Volume: 3, WeightedAverage: 5}
	}
	if v := TMF(flat); v != 0 {
		t.Errorf("flat TMF = %v, want 0", v)
	}
}

func TestTMFGraph_MatchesTruncations(t *testing.T) {
	w := noisy(120, 3)
	g := TMFGraph(w, 5)
	for i := 0; i < 5; i++ {
		assertClose(t, "graph point", g[4-i], TMF(w[:len(w)-i]), 0)
	}
}

func TestStochastic(t *testing.T) {
	// Rising ramp closes at the top of its range: high=last+1, low=first-1.
	w := ramp(14, 100, 1)
	// (113 - 99) / (114 - 99) * 100
	assertClose(t, "stochastic", Stochastic(w), 14.0/15.0*100, 1e-9)

	flat := make([]model.Bar, 14)
	for i := range flat {
		flat[i] = model.Bar{Open: 1, High: 1, Low: 1, Close: 1}
	}
	assertClose(t, "flat stochastic", Stochastic(flat), 50, 0)
}

func TestRVI(t *testing.T) {
	w := []model.Bar{{Open: 10, High: 14, Low: 8, Close: 13}}
	assertClose(t, "rvi", RVI(w), 0.5, 1e-12)
	w[0] = model.Bar{Open: 10, High: 10, Low: 10, Close: 10}
	assertClose(t, "rvi zero range", RVI(w), 0, 0)
}

func TestRVIHist_NoVolume(t *testing.T) {
	w := ramp(12, 10, 1)
	for i := range w {
		w[i].Volume = 0
	}
	assertClose(t, "rvihist", RVIHist(w), 0, 0)
}

func TestAroon(t *testing.T) {
	up := ramp(30, 100, 1)
	assertClose(t, "aroon up on rise", AroonUp(up), 100, 0)
	// The lowest low of the last 25 is 24 bars back.
	assertClose(t, "aroon down on rise", AroonDown(up), 4, 1e-9)

	down := ramp(30, 100, -1)
	assertClose(t, "aroon up on fall", AroonUp(down), 4, 1e-9)
	assertClose(t, "aroon down on fall", AroonDown(down), 100, 0)
}

func TestIchimokuSignal_ZeroSMAFallsBackToDifference(t *testing.T) {
	w := make([]model.Bar, 26)
	for i := range w {
		w[i] = model.Bar{High: 2, Low: 0}
	}
	w[25].High = 4
	// conversion mid = (4+0)/2 = 2, base mid = (4+0)/2 = 2 → 0
	assertClose(t, "ichimoku", IchimokuSignal(w), 0, 0)
	w[0].High = 10
	// base mid = 5, difference = 2 - 5
	assertClose(t, "ichimoku raw", IchimokuSignal(w), -3, 1e-12)
}

func TestStandardisedDPO(t *testing.T) {
	w := ramp(32, 1, 1)
	// SMA of closes 1..21 = 11, last close 32 → (32-11)/11
	assertClose(t, "dpo", StandardisedDPO(w), 21.0/11.0, 1e-12)
	if err := Try(func() { StandardisedDPO(w[1:]) }); err == nil {
		t.Error("expected out of bounds on 31 bars")
	}
}

func TestStability(t *testing.T) {
	flat := ramp(10, 5, 0)
	assertClose(t, "flat stability", Stability(flat), 0, 0)

	w := series(1, 3)
	// mean 2, std sqrt(2); each bar sits 1/sqrt(2) std away
	assertClose(t, "two bars", Stability(w), 1/math.Sqrt2, 1e-12)
}

func TestWeightedAverage_NoVolumeFallsBackToLastBar(t *testing.T) {
	w := series(1, 2, 3)
	for i := range w {
		w[i].Volume = 0
	}
	assertClose(t, "wa", WeightedAverage(w), 3, 0)
	if err := Try(func() { WeightedAverage(nil) }); err == nil {
		t.Error("empty window should fault")
	}
}

func TestPumpsAndDumps(t *testing.T) {
	w := []model.Bar{
		{Open: 100, Close: 108},
		{Open: 100, Close: 106.9},
		{Open: 100, Close: 92},
		{Open: 0, Close: 50},
	}
	if TotalPumps(w) != 1 || TotalDumps(w) != 1 {
		t.Errorf("pumps/dumps = %v/%v, want 1/1", TotalPumps(w), TotalDumps(w))
	}
}

func TestScanForward(t *testing.T) {
	w := ramp(10, 0, 1)
	maxSeen := 0
	idx := ScanForward(w, 2, func(win []model.Bar) bool {
		maxSeen = max(maxSeen, len(win))
		return win[len(win)-1].Close >= 6
	})
	if idx != 6 {
		t.Errorf("index = %d, want 6", idx)
	}
	if maxSeen != 7 {
		t.Errorf("predicate saw %d bars, want 7", maxSeen)
	}

	err := Try(func() {
		ScanForward(w, 2, func([]model.Bar) bool { return false })
	})
	var oob *OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("expected *OutOfBoundsError running off the end, got %v", err)
	}
}

func TestTry_RepanicsOtherPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recovered %v, want boom", r)
		}
	}()
	_ = Try(func() { panic("boom") })
}
