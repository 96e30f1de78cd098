package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewGeometry(t *testing.T) {
	assert := assert.New(t)

	tracks := []Track{
		{Name: "A", Pos: mat.NewDense(3, 3, []float64{0, 0, 0, 1, 1, 0, 2, 2, 0})},
		{Name: "B", Pos: mat.NewDense(2, 3, []float64{5, 0, 0, 5, 1, 0})},
	}
	emitter := mat.NewDense(1, 3, []float64{1, 2, 0})
	estimates := mat.NewDense(2, 3, []float64{1.1, 2, 0, 0.9, 2.1, 0})

	plt, err := NewGeometry(tracks, emitter, estimates)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewGeometry(tracks, emitter, nil)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewGeometry(nil, emitter, estimates)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewGeometry(tracks, nil, estimates)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewGeometry([]Track{{Name: "A"}}, emitter, estimates)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewGeometry(tracks, mat.NewDense(3, 1, nil), estimates)
	assert.Nil(plt)
	assert.Error(err)
}

func TestNewConvergence(t *testing.T) {
	assert := assert.New(t)

	plt, err := NewConvergence([]float64{100, 10, 1, 0.5})
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewConvergence(nil)
	assert.Nil(plt)
	assert.Error(err)
}
