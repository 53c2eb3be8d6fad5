package numerics

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.10f, want %.10f (tol %.1e)", label, got, want, tol)
	}
}

func TestLockRange(t *testing.T) {
	tests := []struct {
		name            string
		lower, x, upper float64
		want            float64
	}{
		{"inside", 0, 42, 100, 42},
		{"below", 0, -3, 100, 0},
		{"above", -1, 7, 1, 1},
		{"nan midpoint", 0, math.NaN(), 100, 50},
		{"nan symmetric", -1, math.NaN(), 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LockRange(tt.lower, tt.x, tt.upper); got != tt.want {
				t.Errorf("LockRange(%v, %v, %v) = %v, want %v", tt.lower, tt.x, tt.upper, got, tt.want)
			}
		})
	}
}

func TestEMA_ConstantIsFixedPoint(t *testing.T) {
	xs := make([]float64, 40)
	for i := range xs {
		xs[i] = 3.25
	}
	for _, l := range []int{1, 5, 10, 20} {
		assertClose(t, "EMA constant", EMA(xs, l), 3.25, 1e-12)
	}
}

func TestEMA_HandCalculated(t *testing.T) {
	// length 2: k = 2/3, seed = SMA(1,2) = 1.5
	// step 3: 3*2/3 + 1.5/3 = 2.5
	// step 4: 4*2/3 + 2.5/3 = 3.5
	got := EMA([]float64{1, 2, 3, 4}, 2)
	assertClose(t, "EMA(1,2,3,4;2)", got, 3.5, 1e-12)

	// Only the last 2*length points matter.
	got = EMA([]float64{100, -7, 1, 2, 3, 4}, 2)
	assertClose(t, "EMA ignores older points", got, 3.5, 1e-12)
}

func TestEMA_ShortInputPanicsWithOutOfBounds(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("expected error panic, got %v", r)
		}
		var oob *OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("expected *OutOfBoundsError, got %T", err)
		}
		if oob.Need != 20 || oob.Have != 19 {
			t.Errorf("need/have = %d/%d, want 20/19", oob.Need, oob.Have)
		}
	}()
	EMA(make([]float64, 19), 10)
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assertClose(t, "mean", mean, 5, 1e-12)
	// sample variance = 32/7
	assertClose(t, "std", std, math.Sqrt(32.0/7.0), 1e-12)

	mean, std = MeanStd([]float64{3})
	if mean != 3 || std != 0 {
		t.Errorf("single sample: got (%v, %v), want (3, 0)", mean, std)
	}
	mean, std = MeanStd(nil)
	if mean != 0 || std != 0 {
		t.Errorf("empty: got (%v, %v), want (0, 0)", mean, std)
	}
}

func TestPearson_Fallbacks(t *testing.T) {
	flat := []float64{1, 1, 1, 1}
	rising := []float64{1, 2, 3, 4}
	falling := []float64{4, 3, 2, 1}

	if got := Pearson(flat, flat); got != 1 {
		t.Errorf("both constant: got %v, want 1", got)
	}
	if got := Pearson(rising, flat); got != 0 {
		t.Errorf("one constant: got %v, want 0", got)
	}
	assertClose(t, "perfect positive", Pearson(Time(4), rising), 1, 1e-12)
	assertClose(t, "perfect negative", Pearson(Time(4), falling), -1, 1e-12)
}

func TestCorrelation_RawIsNaNOnConstant(t *testing.T) {
	if got := Correlation([]float64{1, 2, 3}, []float64{5, 5, 5}); !math.IsNaN(got) {
		t.Errorf("constant side: got %v, want NaN", got)
	}
	assertClose(t, "raw", Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1, 1e-12)
}

func TestPCAndPerc(t *testing.T) {
	assertClose(t, "pc up", PC(100, 115), 15, 1e-12)
	assertClose(t, "pc down", PC(200, 150), -25, 1e-12)
	if PC(0, 5) != 0 {
		t.Error("pc from zero should be 0")
	}
	assertClose(t, "perc", Perc(25, 200), 12.5, 1e-12)
	if Perc(5, 0) != 100 {
		t.Error("perc of zero should be 100")
	}
}

func TestHighLowIndexes(t *testing.T) {
	xs := []float64{3, 9, 1, 9, 1}
	if High(xs) != 9 || Low(xs) != 1 {
		t.Errorf("High/Low = %v/%v", High(xs), Low(xs))
	}
	if HighIndex(xs) != 1 {
		t.Errorf("HighIndex = %d, want first strict max 1", HighIndex(xs))
	}
	if LowIndex(xs) != 2 {
		t.Errorf("LowIndex = %d, want first min 2", LowIndex(xs))
	}
	// High is floored at zero, Low is not.
	neg := []float64{-3, -1}
	if High(neg) != 0 || Low(neg) != -3 {
		t.Errorf("negative High/Low = %v/%v", High(neg), Low(neg))
	}
}

func TestHealNaN(t *testing.T) {
	nan := math.NaN()
	xs := []float64{nan, nan, 2, nan, nan, 8, nan}
	if !HealNaN(xs) {
		t.Fatal("expected heal to succeed")
	}
	want := []float64{2, 2, 2, 4, 6, 8, 8}
	for i := range want {
		assertClose(t, "healed", xs[i], want[i], 1e-12)
	}

	if HealNaN([]float64{nan, nan}) {
		t.Error("all-NaN input should report false")
	}
}
