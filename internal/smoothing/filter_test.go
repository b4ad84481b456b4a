package smoothing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/core"
)

func times(n int) []time.Time {
	ts := make([]time.Time, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range ts {
		ts[i] = base.AddDate(0, 0, i)
	}
	return ts
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		window, degree int
	}{
		{window: 4, degree: 2},  // even window
		{window: 1, degree: 1},  // too small
		{window: 5, degree: 0},  // degree too low
		{window: 5, degree: 5},  // degree >= window
	}
	for _, c := range cases {
		if _, err := New(c.window, c.degree); !errors.Is(err, core.ErrConfigInvalid) {
			t.Errorf("New(%d, %d) should fail with ErrConfigInvalid, got %v", c.window, c.degree, err)
		}
	}

	if _, err := New(21, 3); err != nil {
		t.Errorf("New(21, 3) should succeed, got %v", err)
	}
}

func TestFill_ForwardThenBackward(t *testing.T) {
	s := core.NewSeries(times(6))
	s.Set(2, 5)
	s.Set(4, 7)

	filled := fill(s)

	want := []float64{5, 5, 5, 5, 7, 7}
	for i, w := range want {
		v, ok := filled.At(i)
		if !ok || v != w {
			t.Errorf("filled[%d] = %f, %v, want %f", i, v, ok, w)
		}
	}

	// Input untouched.
	if s.Valid(0) {
		t.Error("fill must not mutate its input")
	}
}

func TestFill_AllMissingStaysMissing(t *testing.T) {
	s := core.NewSeries(times(4))

	filled := fill(s)

	if filled.ValidCount() != 0 {
		t.Error("an all-missing series has nothing to fill from")
	}
}

func TestApply_ShortSeriesFallsBack(t *testing.T) {
	f, _ := New(5, 2)

	// Length 5 < window+1: filled but unsmoothed.
	s := core.NewSeries(times(5))
	s.Set(1, 3)

	out := f.Apply(s)

	for i := 0; i < 5; i++ {
		if v, ok := out.At(i); !ok || v != 3 {
			t.Errorf("out[%d] = %f, %v, want filled value 3", i, v, ok)
		}
	}
}

func TestApply_PolynomialIsReproduced(t *testing.T) {
	// A cubic fitted with a cubic local polynomial is reproduced exactly
	// (up to floating error), including the clamped edge windows.
	f, _ := New(7, 3)

	n := 30
	s := core.NewSeries(times(n))
	for i := 0; i < n; i++ {
		x := float64(i)
		s.Set(i, 0.5*x*x*x-2*x*x+3*x-1)
	}

	out := f.Apply(s)

	for i := 0; i < n; i++ {
		x := float64(i)
		want := 0.5*x*x*x - 2*x*x + 3*x - 1
		v, ok := out.At(i)
		if !ok {
			t.Fatalf("out[%d] missing", i)
		}
		if math.Abs(v-want) > 1e-6*math.Max(1, math.Abs(want)) {
			t.Errorf("out[%d] = %f, want %f", i, v, want)
		}
	}
}

func TestApply_SmoothsNoise(t *testing.T) {
	f, _ := New(7, 2)

	// A line with one spike: smoothing must pull the spike toward the line.
	n := 25
	s := core.NewSeries(times(n))
	for i := 0; i < n; i++ {
		v := float64(i)
		if i == 12 {
			v += 50
		}
		s.Set(i, v)
	}

	out := f.Apply(s)

	v, ok := out.At(12)
	if !ok {
		t.Fatal("out[12] missing")
	}
	if math.Abs(v-12) > 25 {
		t.Errorf("spike not attenuated: out[12] = %f", v)
	}
	if v >= 62 {
		t.Error("smoothed value should be below the raw spike")
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	f, _ := New(5, 2)

	n := 10
	s := core.NewSeries(times(n))
	for i := 0; i < n; i++ {
		if i != 4 {
			s.Set(i, float64(i))
		}
	}

	_ = f.Apply(s)

	if s.Valid(4) {
		t.Error("Apply must not fill the input series in place")
	}
}

func TestPolyfit_Line(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2}
	ys := []float64{-3, -1, 1, 3, 5} // y = 2x + 1

	coeffs, ok := polyfit(xs, ys, 1)
	if !ok {
		t.Fatal("polyfit failed")
	}
	if math.Abs(coeffs[0]-1) > 1e-9 || math.Abs(coeffs[1]-2) > 1e-9 {
		t.Errorf("coeffs = %v, want [1 2]", coeffs)
	}
}
