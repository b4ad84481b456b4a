// Package smoothing implements the display post-processing filter: gaps are
// forward- then backward-filled, then a Savitzky-Golay style local
// polynomial fit smooths the series.
package smoothing

import (
	"fmt"

	"github.com/newthinker/prism/internal/core"
)

// Filter fills and smooths a series. The zero value is not usable; construct
// with New or Default.
type Filter struct {
	window int
	degree int
}

// New creates a filter with the given smoothing window (odd, >= 3) and
// polynomial degree (>= 1, < window).
func New(window, degree int) (*Filter, error) {
	if window < 3 || window%2 == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("smoothing window must be odd and >= 3, got %d", window))
	}
	if degree < 1 || degree >= window {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("polynomial degree must be in [1, window), got %d", degree))
	}
	return &Filter{window: window, degree: degree}, nil
}

// Default returns the standard display filter: window 21, degree 3.
func Default() *Filter {
	f, err := New(21, 3)
	if err != nil {
		panic(err)
	}
	return f
}

// Window returns the smoothing window length.
func (f *Filter) Window() int { return f.window }

// Degree returns the polynomial degree.
func (f *Filter) Degree() int { return f.degree }

// Apply fills the series' missing entries (forward fill, then backward fill)
// and smooths it with a local polynomial fit of the filter's degree over the
// filter's window. When fewer than window+1 observations exist, or the
// series has no valid entries to fill from, Apply falls back to returning
// the filled-but-unsmoothed series. The input is never mutated.
func (f *Filter) Apply(s *core.Series) *core.Series {
	filled := fill(s)

	if s.Len() < f.window+1 || filled.ValidCount() != filled.Len() {
		return filled
	}

	values := make([]float64, filled.Len())
	for i := range values {
		values[i], _ = filled.At(i)
	}

	out := core.NewSeries(s.Times())
	half := f.window / 2

	for i := range values {
		// Clamp the window to the series bounds; edge positions are
		// evaluated off-center against the first or last full window.
		start := i - half
		if start < 0 {
			start = 0
		}
		if start > len(values)-f.window {
			start = len(values) - f.window
		}

		coeffs, ok := fitWindow(values[start:start+f.window], f.degree)
		if !ok {
			return filled
		}
		out.Set(i, polyval(coeffs, float64(i-(start+half))))
	}

	return out
}

// fill forward-fills then backward-fills missing entries. A series with no
// valid entries at all comes back unchanged (still all-missing).
func fill(s *core.Series) *core.Series {
	out := s.Clone()

	last, seen := 0.0, false
	for i := 0; i < out.Len(); i++ {
		if v, ok := out.At(i); ok {
			last, seen = v, true
		} else if seen {
			out.Set(i, last)
		}
	}

	next, seen := 0.0, false
	for i := out.Len() - 1; i >= 0; i-- {
		if v, ok := out.At(i); ok {
			next, seen = v, true
		} else if seen {
			out.Set(i, next)
		}
	}

	return out
}

// fitWindow fits a least-squares polynomial to one window of values. The
// predictor is the offset from the window center, which keeps the normal
// equations well conditioned.
func fitWindow(window []float64, degree int) ([]float64, bool) {
	xs := make([]float64, len(window))
	for j := range window {
		xs[j] = float64(j - len(window)/2)
	}
	return polyfit(xs, window, degree)
}
