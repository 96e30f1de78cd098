package kinematics

import (
	"fmt"
	"math"

	geoloc "github.com/milosgajdos/go-geoloc"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Circular is a horizontal circular trajectory flown at constant height.
//
//	x(t) = cx + R*cos(w*t)
//	y(t) = cy + R*sin(w*t)
//	z(t) = h
type Circular struct {
	// center is the horizontal circle center; Z is ignored
	center r3.Vec
	// radius is circle radius in metres
	radius float64
	// rate is angular rate in radians per second
	rate float64
	// height is constant Z coordinate
	height float64
}

// NewCircular creates new circular trajectory.
// Positive rate moves counter-clockwise when looking down the Z axis.
// It returns error if radius is negative or if any parameter is not finite.
func NewCircular(center r3.Vec, radius, rate, height float64) (*Circular, error) {
	if err := checkVec("center", center); err != nil {
		return nil, err
	}

	for _, v := range []float64{radius, rate, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite circular trajectory parameter", geoloc.ErrInvalidInput)
		}
	}

	if radius < 0 {
		return nil, fmt.Errorf("%w: negative radius: %g", geoloc.ErrInvalidInput, radius)
	}

	return &Circular{
		center: center,
		radius: radius,
		rate:   rate,
		height: height,
	}, nil
}

// Position returns positions on the circle at times t.
// It returns error if t is empty or contains non-finite values.
func (c *Circular) Position(t []float64) (*mat.Dense, error) {
	if err := checkTimes(t); err != nil {
		return nil, err
	}

	pos := mat.NewDense(len(t), 3, nil)
	for i, ti := range t {
		sin, cos := math.Sincos(c.rate * ti)
		pos.SetRow(i, []float64{
			c.center.X + c.radius*cos,
			c.center.Y + c.radius*sin,
			c.height,
		})
	}

	return pos, nil
}

// Velocity returns velocities tangent to the circle at times t.
// It returns error if t is empty or contains non-finite values.
func (c *Circular) Velocity(t []float64) (*mat.Dense, error) {
	if err := checkTimes(t); err != nil {
		return nil, err
	}

	speed := c.radius * c.rate
	vel := mat.NewDense(len(t), 3, nil)
	for i, ti := range t {
		sin, cos := math.Sincos(c.rate * ti)
		vel.SetRow(i, []float64{-speed * sin, speed * cos, 0})
	}

	return vel, nil
}
