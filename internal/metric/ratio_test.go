package metric

import (
	"math"
	"testing"

	"github.com/newthinker/prism/internal/core"
)

// naiveRatio recomputes the gain/loss ratio at index i from scratch over the
// returns in [i-window, i).
func naiveRatio(returns []float64, i, window int) (float64, bool) {
	if i < window+1 {
		return 0, false
	}
	var sum, loss float64
	negs := 0
	for j := i - window; j < i; j++ {
		r := returns[j]
		sum += r
		if r < 0 {
			loss += -r
			negs++
		}
	}
	if negs == 0 {
		return 0, false
	}
	return sum / loss, true
}

func trendBars(closes []float64) []core.OHLCV {
	bars := testBars(len(closes))
	for i, c := range closes {
		bars[i].Open = c
		bars[i].High = c * 1.01
		bars[i].Low = c * 0.99
		bars[i].Close = c
	}
	return bars
}

func TestPerformanceRatio(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 104, 102, 105, 103, 106, 104}
	bars := trendBars(closes)
	window := 4

	m := NewPerformanceRatio()
	if m.Name() != "performance_ratio" {
		t.Fatalf("unexpected name %q", m.Name())
	}

	series, err := m.Compute(bars, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != len(closes) {
		t.Fatalf("expected length %d, got %d", len(closes), series.Len())
	}

	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		returns[i] = closes[i]/closes[i-1] - 1
	}

	for i := 0; i < series.Len(); i++ {
		want, wantOK := naiveRatio(returns, i, window)
		got, ok := series.At(i)
		if ok != wantOK {
			t.Fatalf("index %d: validity %v, want %v", i, ok, wantOK)
		}
		if ok && math.Abs(got-want) > 1e-12 {
			t.Errorf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestPerformanceRatio_InvalidWindow(t *testing.T) {
	m := NewPerformanceRatio()
	if _, err := m.Compute(testBars(5), 0); err == nil {
		t.Error("expected error for window 0")
	}
}

func TestVolatilityAdjusted(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 104, 102, 105, 103, 106, 104, 107, 105, 108, 106}
	bars := trendBars(closes)
	window := 3

	m := NewVolatilityAdjusted()
	if m.Name() != "volatility_adjusted_ratio" {
		t.Fatalf("unexpected name %q", m.Name())
	}

	series, err := m.Compute(bars, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != len(closes) {
		t.Fatalf("expected length %d, got %d", len(closes), series.Len())
	}

	// ATR needs a full window of true ranges and the ratio another full
	// window of adjusted returns on top of it.
	for i := 0; i < 2*window; i++ {
		if series.Valid(i) {
			t.Errorf("index %d should be missing", i)
		}
	}

	any := false
	for i := 2 * window; i < series.Len(); i++ {
		if series.Valid(i) {
			any = true
		}
	}
	if !any {
		t.Error("expected at least one valid point past the warmup")
	}
}

func TestVolatilityAdjusted_MatchesNaive(t *testing.T) {
	closes := []float64{50, 51, 50.5, 52, 51, 53, 52, 54, 53, 55, 54, 56, 55, 57}
	bars := trendBars(closes)
	window := 3

	// Independent recomputation of the adjusted returns.
	n := len(closes)
	tr := make([]float64, n)
	for i := range bars {
		hl := bars[i].High - bars[i].Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prev := bars[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(bars[i].High-prev), math.Abs(bars[i].Low-prev)))
	}
	adjusted := make([]float64, n)
	adjValid := make([]bool, n)
	for i := window; i < n; i++ {
		var sum float64
		for j := i - window; j < i; j++ {
			sum += tr[j]
		}
		atr := sum / float64(window)
		if atr == 0 {
			continue
		}
		adjusted[i] = (closes[i]/closes[i-1] - 1) / atr
		adjValid[i] = true
	}

	m := NewVolatilityAdjusted()
	series, err := m.Compute(bars, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < n; i++ {
		var sum, loss float64
		negs, missing := 0, 0
		if i < window {
			missing = 1
		} else {
			for j := i - window; j < i; j++ {
				if !adjValid[j] {
					missing++
					continue
				}
				r := adjusted[j]
				sum += r
				if r < 0 {
					loss += -r
					negs++
				}
			}
		}
		wantOK := missing == 0 && negs > 0
		got, ok := series.At(i)
		if ok != wantOK {
			t.Fatalf("index %d: validity %v, want %v", i, ok, wantOK)
		}
		if ok {
			want := sum / loss
			if math.Abs(got-want) > 1e-9*math.Max(1, math.Abs(want)) {
				t.Errorf("index %d: got %v, want %v", i, got, want)
			}
		}
	}
}
