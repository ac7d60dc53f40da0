package stat

import (
	"errors"
	"math"
)

// ErrSingular reports that a linear system had no usable solution. Callers
// treat it as "these data cannot identify these coefficients".
var ErrSingular = errors.New("singular system")

// OLS solves min ||y - X·b|| through the normal equations. X is row-major
// with one row per observation; all rows must share the same width.
func OLS(x [][]float64, y []float64) ([]float64, error) {
	n := len(x)
	if n == 0 || len(x[0]) == 0 || len(y) != n {
		return nil, errors.New("ols: empty or mismatched design")
	}
	if n < len(x[0]) {
		// Underdetermined; the normal matrix is rank deficient.
		return nil, ErrSingular
	}
	xtx, xty := normalEquations(x, y)
	return SolveLinear(xtx, xty)
}

// normalEquations forms XᵀX and Xᵀy in one pass over the rows.
func normalEquations(x [][]float64, y []float64) ([][]float64, []float64) {
	p := len(x[0])
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)
	for i := range x {
		row := x[i]
		for j := 0; j < p; j++ {
			for k := 0; k < p; k++ {
				xtx[j][k] += row[j] * row[k]
			}
			xty[j] += row[j] * y[i]
		}
	}
	return xtx, xty
}

// SolveLinear solves A·x = b by Gaussian elimination with partial pivoting.
// The inputs are not modified.
func SolveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 || len(b) != n {
		return nil, errors.New("solve: empty or mismatched system")
	}

	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, n+1)
		copy(aug[i][:n], a[i])
		aug[i][n] = b[i]
	}

	for i := 0; i < n; i++ {
		maxRow := i
		for k := i + 1; k < n; k++ {
			if math.Abs(aug[k][i]) > math.Abs(aug[maxRow][i]) {
				maxRow = k
			}
		}
		aug[i], aug[maxRow] = aug[maxRow], aug[i]

		if math.Abs(aug[i][i]) < 1e-10 {
			return nil, ErrSingular
		}

		for j := i + 1; j < n+1; j++ {
			aug[i][j] /= aug[i][i]
		}
		for k := i + 1; k < n; k++ {
			factor := aug[k][i]
			for j := i + 1; j <= n; j++ {
				aug[k][j] -= factor * aug[i][j]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		x[i] = aug[i][n]
		for j := i + 1; j < n; j++ {
			x[i] -= aug[i][j] * x[j]
		}
	}
	return x, nil
}
