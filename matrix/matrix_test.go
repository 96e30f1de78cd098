package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestColSumsMeans(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.2, 3.4, 4.5, 6.7, 8.9, 10.0}
	colSums := []float64{14.6, 20.1}
	colMeans := []float64{14.6 / 3, 20.1 / 3}
	delta := 0.001

	m := mat.NewDense(3, 2, data)

	resCols := ColSums(m)
	assert.InDeltaSlice(colSums, resCols, delta)

	resMeans := ColMeans(m)
	assert.InDeltaSlice(colMeans, resMeans, delta)

	// should panic
	assert.Panics(func() { ColSums(nil) })
}

func TestAllFinite(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.True(AllFinite(m))

	m.Set(1, 0, math.NaN())
	assert.False(AllFinite(m))

	m.Set(1, 0, math.Inf(-1))
	assert.False(AllFinite(m))
}

func TestNormalSym(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})
	w := mat.NewDiagDense(3, []float64{1, 2, 3})

	n := NormalSym(a, w)
	assert.Equal(2, n.SymmetricDim())

	want := mat.NewSymDense(2, []float64{4, 3, 3, 5})
	assert.True(mat.EqualApprox(want, n, 1e-12))
}

func TestJacobiScale(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewSymDense(2, []float64{4, 1, 1, 9})

	s, d, ok := JacobiScale(a)
	assert.True(ok)
	assert.InDeltaSlice([]float64{0.5, 1.0 / 3}, d, 1e-12)
	assert.InDelta(1.0, s.At(0, 0), 1e-12)
	assert.InDelta(1.0, s.At(1, 1), 1e-12)
	assert.InDelta(1.0/6, s.At(0, 1), 1e-12)

	_, _, ok = JacobiScale(mat.NewSymDense(2, []float64{1, 0, 0, 0}))
	assert.False(ok)
}

func TestScaledCond(t *testing.T) {
	assert := assert.New(t)

	// badly scaled but well conditioned after scaling
	a := mat.NewSymDense(2, []float64{1e12, 0, 0, 1e-12})
	assert.InDelta(1.0, ScaledCond(a), 1e-9)

	// rank deficient
	b := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	assert.Greater(ScaledCond(b), 1e12)

	// zero diagonal
	c := mat.NewSymDense(2, []float64{1, 0, 0, 0})
	assert.True(math.IsInf(ScaledCond(c), 1))
}
