package kinematics

import (
	"errors"
	"math"
	"os"
	"testing"

	geoloc "github.com/milosgajdos/go-geoloc"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	times []float64
	cv    *ConstantVelocity
	circ  *Circular
)

func setup() {
	times = []float64{0.0, 0.5, 1.0, 2.5, 10.0}
	cv, _ = NewConstantVelocity(r3.Vec{X: 1000, Y: 0, Z: 100}, r3.Vec{X: 0, Y: 50, Z: -2})
	circ, _ = NewCircular(r3.Vec{X: 10, Y: -20}, 500.0, 0.1, 300.0)
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestSpan(t *testing.T) {
	assert := assert.New(t)

	ts, err := Span(0, 1, 11)
	assert.NoError(err)
	assert.Len(ts, 11)
	assert.InDelta(0.1, ts[1], 1e-12)
	assert.Equal(1.0, ts[10])

	ts, err = Span(5, 5, 1)
	assert.NoError(err)
	assert.Equal([]float64{5}, ts)

	ts, err = Span(0, 1, 0)
	assert.Nil(ts)
	assert.True(errors.Is(err, geoloc.ErrInvalidInput))

	ts, err = Span(1, 0, 3)
	assert.Nil(ts)
	assert.Error(err)
}

func TestNewConstantVelocity(t *testing.T) {
	assert := assert.New(t)

	c, err := NewConstantVelocity(r3.Vec{}, r3.Vec{X: 1})
	assert.NotNil(c)
	assert.NoError(err)

	c, err = NewConstantVelocity(r3.Vec{X: math.NaN()}, r3.Vec{})
	assert.Nil(c)
	assert.Error(err)

	c, err = NewConstantVelocity(r3.Vec{}, r3.Vec{Z: math.Inf(1)})
	assert.Nil(c)
	assert.Error(err)
}

func TestConstantVelocity(t *testing.T) {
	assert := assert.New(t)

	pos, err := cv.Position(times)
	assert.NoError(err)
	r, c := pos.Dims()
	assert.Equal(len(times), r)
	assert.Equal(3, c)

	for i, ti := range times {
		assert.InDelta(1000.0, pos.At(i, 0), 1e-9)
		assert.InDelta(50*ti, pos.At(i, 1), 1e-9)
		assert.InDelta(100-2*ti, pos.At(i, 2), 1e-9)
	}

	vel, err := cv.Velocity(times)
	assert.NoError(err)
	for i := range times {
		assert.Equal([]float64{0, 50, -2}, mat.Row(nil, i, vel))
	}
}

func TestStationary(t *testing.T) {
	assert := assert.New(t)

	s, err := NewStationary(r3.Vec{X: 1, Y: 2, Z: 3})
	assert.NoError(err)

	pos, err := s.Position(times)
	assert.NoError(err)
	vel, err := s.Velocity(times)
	assert.NoError(err)

	for i := range times {
		assert.Equal([]float64{1, 2, 3}, mat.Row(nil, i, pos))
		assert.Equal([]float64{0, 0, 0}, mat.Row(nil, i, vel))
	}
}

func TestNewCircular(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCircular(r3.Vec{}, 0, 1, 0)
	assert.NotNil(c)
	assert.NoError(err)

	c, err = NewCircular(r3.Vec{}, -1, 1, 0)
	assert.Nil(c)
	assert.True(errors.Is(err, geoloc.ErrInvalidInput))

	c, err = NewCircular(r3.Vec{}, 1, math.NaN(), 0)
	assert.Nil(c)
	assert.Error(err)
}

func TestCircular(t *testing.T) {
	assert := assert.New(t)

	pos, err := circ.Position(times)
	assert.NoError(err)
	vel, err := circ.Velocity(times)
	assert.NoError(err)

	for i := range times {
		dx := pos.At(i, 0) - 10
		dy := pos.At(i, 1) + 20
		// stays on the circle at constant height
		assert.InDelta(500.0, math.Hypot(dx, dy), 1e-9)
		assert.Equal(300.0, pos.At(i, 2))
		// speed is R*w and velocity is tangent to the circle
		assert.InDelta(50.0, math.Hypot(vel.At(i, 0), vel.At(i, 1)), 1e-9)
		assert.InDelta(0.0, dx*vel.At(i, 0)+dy*vel.At(i, 1), 1e-6)
		assert.Equal(0.0, vel.At(i, 2))
	}

	// t = 0 starts on the +X side moving towards +Y
	assert.InDelta(510.0, pos.At(0, 0), 1e-9)
	assert.InDelta(-20.0, pos.At(0, 1), 1e-9)
	assert.InDelta(50.0, vel.At(0, 1), 1e-9)
}

func TestSubsequence(t *testing.T) {
	assert := assert.New(t)

	for _, tr := range []geoloc.Trajectory{cv, circ} {
		full, err := tr.Position(times)
		assert.NoError(err)
		fullVel, err := tr.Velocity(times)
		assert.NoError(err)

		sub := times[2:4]
		part, err := tr.Position(sub)
		assert.NoError(err)
		partVel, err := tr.Velocity(sub)
		assert.NoError(err)

		assert.True(mat.Equal(full.Slice(2, 4, 0, 3), part))
		assert.True(mat.Equal(fullVel.Slice(2, 4, 0, 3), partVel))
	}
}

func TestInvalidTimes(t *testing.T) {
	assert := assert.New(t)

	for _, tr := range []geoloc.Trajectory{cv, circ} {
		for _, ts := range [][]float64{nil, {}, {0, math.NaN()}, {math.Inf(-1)}} {
			pos, err := tr.Position(ts)
			assert.Nil(pos)
			assert.True(errors.Is(err, geoloc.ErrInvalidInput))

			vel, err := tr.Velocity(ts)
			assert.Nil(vel)
			assert.True(errors.Is(err, geoloc.ErrInvalidInput))
		}
	}
}
