package norm

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.10f, want %.10f (tol %.1e)", label, got, want, tol)
	}
}

func TestStatFill(t *testing.T) {
	var s Stat
	s.Fill([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assertClose(t, "mean", s.Mean, 5, 1e-12)
	assertClose(t, "std", s.Std, math.Sqrt(32.0/7.0), 1e-12)
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("min/max = %v/%v, want 2/9", s.Min, s.Max)
	}

	s.Fill([]float64{-4})
	if s.Mean != -4 || s.Std != 0 || s.Min != -4 || s.Max != -4 {
		t.Errorf("single sample: %+v", s)
	}
}

func TestNormalise_RoundTripInsideClamp(t *testing.T) {
	s := Stat{Mean: 10, Std: 2}
	// Everything in [3, 17] survives the round trip.
	for _, x := range []float64{3, 4.5, 10, 12.25, 17} {
		assertClose(t, "round trip", s.Unnormalise(s.Normalise(x)), x, 1e-12)
	}
}

func TestNormalise_ClampsToBoundary(t *testing.T) {
	s := Stat{Mean: 10, Std: 2}
	assertClose(t, "high", s.Normalise(100), 3.5, 0)
	assertClose(t, "low", s.Normalise(-100), -3.5, 0)
	// Clamped values come back at mean ± 3.5 std.
	assertClose(t, "high back", s.Unnormalise(s.Normalise(100)), 17, 1e-12)
	assertClose(t, "low back", s.Unnormalise(s.Normalise(-100)), 3, 1e-12)
}

func TestNormalise_ZeroStdReadsMidpoint(t *testing.T) {
	s := Stat{Mean: 1, Std: 0}
	// (1-1)/0 is NaN → midpoint of [-3.5, 3.5]
	assertClose(t, "0/0", s.Normalise(1), 0, 0)
	assertClose(t, "x/0", s.Normalise(2), 3.5, 0)
}

func TestSquash(t *testing.T) {
	s := Stat{Min: 2, Max: 6}
	// factor = 4/2 = 2, diff = 6/2 - 1 = 2
	assertClose(t, "min", s.Squash(2), -1, 1e-12)
	assertClose(t, "mid", s.Squash(4), 0, 1e-12)
	assertClose(t, "max", s.Squash(6), 1, 1e-12)
	for x := 2.0; x <= 6; x += 0.37 {
		y := s.Squash(x)
		if y < -1-1e-12 || y > 1+1e-12 {
			t.Errorf("squash(%v) = %v outside [-1,1]", x, y)
		}
		assertClose(t, "unsquash", s.Unsquash(y), x, 1e-12)
	}
}

func TestSquash_DegenerateColumnIsOffsetOnly(t *testing.T) {
	s := Stat{Min: 5, Max: 5}
	assertClose(t, "squash", s.Squash(5), 0, 0)
	assertClose(t, "squash off-column", s.Squash(7), 2, 0)
	assertClose(t, "unsquash", s.Unsquash(2), 7, 0)
}

func TestNormalisation_Matrix(t *testing.T) {
	m := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}
	n, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Width() != 2 {
		t.Fatalf("width = %d", n.Width())
	}
	assertClose(t, "col0 mean", n.Params[0].Mean, 2, 1e-12)
	assertClose(t, "col1 std", n.Params[1].Std, 10, 1e-12)

	z := n.Normalise(m)
	assertClose(t, "z[2][1]", z[2][1], 1, 1e-12)
	back := n.Unnormalise(z)
	for r := range m {
		for c := range m[r] {
			assertClose(t, "unnormalise", back[r][c], m[r][c], 1e-12)
		}
	}
	if m[0][0] != 1 {
		t.Error("Normalise must not modify its input")
	}

	sq := n.Squashalise(m)
	un := n.Unsquashalise(sq)
	for r := range m {
		for c := range m[r] {
			assertClose(t, "unsquashalise", un[r][c], m[r][c], 1e-9)
		}
	}

	row := n.NormaliseRow([]float64{2, 10})
	assertClose(t, "row", row[0][1], -1, 1e-12)
}

func TestNew_RejectsRaggedAndEmpty(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for empty matrix")
	}
	if _, err := New([][]float64{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged matrix")
	}
}

func TestVectorsRoundTrip(t *testing.T) {
	n, _ := New([][]float64{{1, -1}, {4, 3}, {7, 2}})
	mean, std, lo, hi := n.Vectors()
	back, err := FromVectors(mean, std, lo, hi)
	if err != nil {
		t.Fatalf("FromVectors: %v", err)
	}
	for i := range n.Params {
		if back.Params[i] != n.Params[i] {
			t.Errorf("column %d: %+v != %+v", i, back.Params[i], n.Params[i])
		}
	}
	if _, err := FromVectors(mean, std[:1], lo, hi); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
