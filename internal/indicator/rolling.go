package indicator

import "github.com/newthinker/prism/internal/core"

// RollingMean computes the mean over the trailing window [i-window, i) for
// each index i >= window. Earlier entries are missing. A window containing
// any missing input yields a missing output: partial windows would silently
// bias the mean.
//
// The window slides with an incremental sum and missing-count, so the whole
// series costs O(n) instead of O(n*window).
func RollingMean(s *core.Series, window int) *core.Series {
	out := core.NewSeries(s.Times())
	if window < 1 || s.Len() <= window {
		return out
	}

	var sum float64
	missing := 0
	for i := 0; i < window; i++ {
		if v, ok := s.At(i); ok {
			sum += v
		} else {
			missing++
		}
	}

	for i := window; i < s.Len(); i++ {
		if missing == 0 {
			out.Set(i, sum/float64(window))
		}

		// Slide: drop s[i-window], take s[i].
		if v, ok := s.At(i - window); ok {
			sum -= v
		} else {
			missing--
		}
		if v, ok := s.At(i); ok {
			sum += v
		} else {
			missing++
		}
	}

	return out
}
