// Package regime implements the rolling dual-regime sensitivity analysis:
// each rolling window is split into up-market and down-market observations
// and a separate least-squares slope is fitted per regime.
package regime

// Sample pairs one market-return observation (the predictor) with the metric
// value at the same index.
type Sample struct {
	Market float64
	Metric float64
}

// Slope fits metric = a + b*market by ordinary least squares and returns b.
// ok is false for degenerate sample sets: fewer than two samples, or a
// zero-variance predictor. The zero-variance check compares the raw inputs,
// not the centered sum of squares: identical predictors must never produce a
// slope out of rounding residue.
func Slope(samples []Sample) (b float64, ok bool) {
	n := len(samples)
	if n < 2 {
		return 0, false
	}

	first := samples[0].Market
	varies := false
	for _, s := range samples[1:] {
		if s.Market != first {
			varies = true
			break
		}
	}
	if !varies {
		return 0, false
	}

	var sumX, sumY float64
	for _, s := range samples {
		sumX += s.Market
		sumY += s.Metric
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for _, s := range samples {
		dx := s.Market - meanX
		sxx += dx * dx
		sxy += dx * (s.Metric - meanY)
	}
	if sxx == 0 {
		return 0, false
	}

	return sxy / sxx, true
}
