package smoothing

import "math"

// polyfit fits a least-squares polynomial of the given degree to (xs, ys)
// via the normal equations, solved by Gaussian elimination with partial
// pivoting. Coefficients come back lowest order first. ok is false when the
// system is singular.
func polyfit(xs, ys []float64, degree int) ([]float64, bool) {
	m := degree + 1

	// Moment sums: a[k][l] = sum x^(k+l), b[k] = sum x^k * y.
	moments := make([]float64, 2*degree+1)
	rhs := make([]float64, m)
	for i, x := range xs {
		p := 1.0
		for k := 0; k <= 2*degree; k++ {
			moments[k] += p
			if k < m {
				rhs[k] += p * ys[i]
			}
			p *= x
		}
	}

	a := make([][]float64, m)
	for k := range a {
		a[k] = make([]float64, m)
		for l := 0; l < m; l++ {
			a[k][l] = moments[k+l]
		}
	}

	return solve(a, rhs)
}

// solve runs in-place Gaussian elimination with partial pivoting on a*x = b.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if a[pivot][col] == 0 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}

	return x, true
}

// polyval evaluates a polynomial (lowest order first) at x.
func polyval(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}
