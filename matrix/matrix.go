// Package matrix provides numeric helpers on top of gonum matrices.
package matrix

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m mat.Matrix) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = floats.Sum(mat.Col(nil, i, m))
	}

	return sum
}

// ColMeans returns a slice containing m column means.
// It panics if m is nil or has no rows.
func ColMeans(m mat.Matrix) []float64 {
	rows, _ := m.Dims()
	if rows == 0 {
		panic(mat.ErrZeroLength)
	}

	means := ColSums(m)
	for i := range means {
		means[i] /= float64(rows)
	}

	return means
}

// AllFinite returns true if none of the elements of m is NaN or Inf.
func AllFinite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// NormalSym returns the symmetric matrix A' * W * A.
// W must be a square matrix whose size matches the number of rows of A.
func NormalSym(a, w mat.Matrix) *mat.SymDense {
	_, n := a.Dims()

	wa := &mat.Dense{}
	wa.Mul(w, a)

	ata := &mat.Dense{}
	ata.Mul(a.T(), wa)

	return Sym(ata, n)
}

// Sym returns the n x n symmetric matrix whose elements are
// the averages of m and its transpose.
func Sym(m mat.Matrix, n int) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return s
}

// JacobiScale returns D*A*D where D = diag(1/sqrt(A_ii)) together with the
// diagonal of D. The scaled matrix has unit diagonal.
// It returns false if any diagonal element of A is not strictly positive and finite.
func JacobiScale(a mat.Symmetric) (*mat.SymDense, []float64, bool) {
	n := a.SymmetricDim()

	d := make([]float64, n)
	for i := 0; i < n; i++ {
		v := a.At(i, i)
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, nil, false
		}
		d[i] = 1 / math.Sqrt(v)
	}

	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, a.At(i, j)*d[i]*d[j])
		}
	}

	return s, d, true
}

// ScaledCond returns the 2-norm condition number of the Jacobi scaled matrix a.
// The scaling removes the dependence of the condition number on the units
// of the individual parameters. It returns +Inf if a can not be scaled.
func ScaledCond(a mat.Symmetric) float64 {
	s, _, ok := JacobiScale(a)
	if !ok {
		return math.Inf(1)
	}

	return mat.Cond(s, 2)
}
