package kinematics

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ConstantVelocity is a straight line trajectory with constant velocity.
type ConstantVelocity struct {
	// p0 is position at time 0
	p0 r3.Vec
	// v is velocity
	v r3.Vec
}

// NewConstantVelocity creates new constant velocity trajectory which
// passes through p0 at time 0 and moves with velocity v.
// It returns error if either p0 or v contain non-finite values.
func NewConstantVelocity(p0, v r3.Vec) (*ConstantVelocity, error) {
	if err := checkVec("initial position", p0); err != nil {
		return nil, err
	}

	if err := checkVec("velocity", v); err != nil {
		return nil, err
	}

	return &ConstantVelocity{p0: p0, v: v}, nil
}

// NewStationary creates a trajectory which stays at position p.
func NewStationary(p r3.Vec) (*ConstantVelocity, error) {
	return NewConstantVelocity(p, r3.Vec{})
}

// Position returns positions p0 + v*t.
// It returns error if t is empty or contains non-finite values.
func (c *ConstantVelocity) Position(t []float64) (*mat.Dense, error) {
	if err := checkTimes(t); err != nil {
		return nil, err
	}

	pos := mat.NewDense(len(t), 3, nil)
	for i, ti := range t {
		p := r3.Add(c.p0, r3.Scale(ti, c.v))
		pos.SetRow(i, []float64{p.X, p.Y, p.Z})
	}

	return pos, nil
}

// Velocity returns velocity v for every time sample.
// It returns error if t is empty or contains non-finite values.
func (c *ConstantVelocity) Velocity(t []float64) (*mat.Dense, error) {
	if err := checkTimes(t); err != nil {
		return nil, err
	}

	vel := mat.NewDense(len(t), 3, nil)
	for i := range t {
		vel.SetRow(i, []float64{c.v.X, c.v.Y, c.v.Z})
	}

	return vel, nil
}
