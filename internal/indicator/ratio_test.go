package indicator

import (
	"testing"

	"github.com/newthinker/prism/internal/core"
)

func TestGainLossRatio_Calculate(t *testing.T) {
	rets := core.SeriesFromValues(times(5), []float64{0.02, -0.01, 0.03, -0.02, 0.01})

	r := GainLossRatio(rets, 4)

	for i := 0; i < 4; i++ {
		if r.Valid(i) {
			t.Errorf("ratio[%d] should be missing", i)
		}
	}

	// Window [0,4): sum = 0.02, loss = 0.03 -> ratio = 2/3.
	v, ok := r.At(4)
	if !ok {
		t.Fatal("ratio[4] missing")
	}
	if !almostEqual(v, 0.02/0.03, 1e-12) {
		t.Errorf("ratio[4] = %f, want %f", v, 0.02/0.03)
	}
}

func TestGainLossRatio_ScaleInvariant(t *testing.T) {
	base := []float64{0.01, -0.02, 0.03, -0.01, 0.02, -0.005, 0.015}
	scaled := make([]float64, len(base))
	for i, v := range base {
		scaled[i] = v * 7.5
	}

	r1 := GainLossRatio(core.SeriesFromValues(times(len(base)), base), 4)
	r2 := GainLossRatio(core.SeriesFromValues(times(len(base)), scaled), 4)

	for i := 0; i < r1.Len(); i++ {
		v1, ok1 := r1.At(i)
		v2, ok2 := r2.At(i)
		if ok1 != ok2 {
			t.Fatalf("validity mismatch at %d", i)
		}
		if ok1 && !almostEqual(v1, v2, 1e-9) {
			t.Errorf("ratio not scale invariant at %d: %f vs %f", i, v1, v2)
		}
	}
}

func TestGainLossRatio_NoLossesIsMissing(t *testing.T) {
	rets := core.SeriesFromValues(times(4), []float64{0.01, 0.02, 0.03, 0.01})

	r := GainLossRatio(rets, 3)

	if r.Valid(3) {
		t.Error("all-positive window must yield missing, not infinity")
	}
}

func TestGainLossRatio_LossLeavingWindow(t *testing.T) {
	// One negative return early, then all positive: once the negative slides
	// out, the denominator is degenerate again.
	rets := core.SeriesFromValues(times(6), []float64{-0.01, 0.02, 0.01, 0.03, 0.02, 0.01})

	r := GainLossRatio(rets, 3)

	if v, ok := r.At(3); !ok || !almostEqual(v, 0.02/0.01, 1e-12) {
		t.Errorf("ratio[3] = %f, %v, want 2", v, ok)
	}
	if r.Valid(4) || r.Valid(5) {
		t.Error("windows without negative returns must be missing")
	}
}

func TestGainLossRatio_MissingInputInvalidatesWindow(t *testing.T) {
	rets := core.NewSeries(times(6))
	for i, v := range []float64{0.01, -0.02, 0.03, -0.01, 0.02} {
		rets.Set(i+1, v) // index 0 missing, like a real returns series
	}

	r := GainLossRatio(rets, 3)

	// Position 3 covers index 0, which is missing.
	if r.Valid(3) {
		t.Error("window covering the missing first return must be missing")
	}
	// Window [1,4): sum = 0.02, loss = 0.02.
	if v, ok := r.At(4); !ok || !almostEqual(v, 1.0, 1e-12) {
		t.Errorf("ratio[4] = %f, %v, want 1", v, ok)
	}
}

func TestGainLossRatio_OutputLengthMatchesInput(t *testing.T) {
	rets := core.SeriesFromValues(times(10), make([]float64, 10))

	r := GainLossRatio(rets, 90)

	if r.Len() != 10 {
		t.Errorf("Len = %d, want 10", r.Len())
	}
	if r.ValidCount() != 0 {
		t.Error("window larger than series must yield all-missing output")
	}
}
