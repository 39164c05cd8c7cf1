package forecaster

import (
	"errors"
	"math"
)

var errNotPositiveDefinite = errors.New("forecaster: normal equations are not positive definite")

// normalEquations builds X'X + ridge*I and X'y from row-major design rows.
// The intercept column (index 0) is not penalized.
func normalEquations(rows [][]float64, y []float64, ridge float64) ([][]float64, []float64) {
	k := len(rows[0])
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)

	for t, row := range rows {
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[t]
			for j := 0; j <= i; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < k; i++ {
		for j := 0; j < i; j++ {
			xtx[j][i] = xtx[i][j]
		}
		if i > 0 {
			xtx[i][i] += ridge
		}
	}
	return xtx, xty
}

// solveSymmetric solves A*x=b for symmetric positive definite A by Cholesky
func solveSymmetric(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	if n == 0 || len(b) != n {
		return nil, errors.New("forecaster: dimension mismatch")
	}
	for _, row := range A {
		if len(row) != n {
			return nil, errors.New("forecaster: matrix is not square")
		}
	}

	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}
	// Cholesky decomposition
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			var sum float64
			for k := 0; k < j; k++ {
				sum += L[i][k] * L[j][k]
			}
			if i == j {
				val := A[i][i] - sum
				if val <= 0 || math.IsNaN(val) {
					return nil, errNotPositiveDefinite
				}
				L[i][j] = math.Sqrt(val)
			} else {
				L[i][j] = (A[i][j] - sum) / L[j][j]
			}
		}
	}
	// Forward substitution
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < i; j++ {
			sum += L[i][j] * y[j]
		}
		y[i] = (b[i] - sum) / L[i][i]
	}
	// Back substitution
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		var sum float64
		for j := i + 1; j < n; j++ {
			sum += L[j][i] * x[j]
		}
		x[i] = (y[i] - sum) / L[i][i]
	}
	return x, nil
}

// zScore returns the two-sided normal quantile for an interval width in (0, 1).
func zScore(width float64) float64 {
	return math.Sqrt2 * math.Erfinv(width)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
