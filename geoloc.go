// Package geoloc estimates the position of a radio emitter from differential
// time and frequency of arrival measured by a set of moving receivers.
package geoloc

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// SpeedOfLight is the propagation speed of the signal in m/s.
	SpeedOfLight = 299792458.0
	// MinRange is the smallest emitter to receiver distance in metres
	// that is still considered a valid, non-coincident geometry.
	MinRange = 1e-6
)

// Trajectory is a kinematic trajectory of a platform.
// Both methods accept a sequence of time samples and return a matrix
// with one row per time sample and three columns: X, Y and Z.
type Trajectory interface {
	// Position returns platform positions at times t in metres
	Position(t []float64) (*mat.Dense, error)
	// Velocity returns platform velocities at times t in metres per second
	Velocity(t []float64) (*mat.Dense, error)
}

// State is a kinematic state of a platform at a single epoch.
type State struct {
	// Position in metres
	Position r3.Vec
	// Velocity in metres per second
	Velocity r3.Vec
}

// StateAt evaluates trajectory tr at a single time t and returns its state.
func StateAt(tr Trajectory, t float64) (State, error) {
	ts := []float64{t}

	pos, err := tr.Position(ts)
	if err != nil {
		return State{}, err
	}

	vel, err := tr.Velocity(ts)
	if err != nil {
		return State{}, err
	}

	return State{
		Position: RowVec(pos, 0),
		Velocity: RowVec(vel, 0),
	}, nil
}

// RowVec returns i-th row of the n x 3 matrix m as a vector.
// It panics if m has fewer than 3 columns or i is out of range.
func RowVec(m mat.Matrix, i int) r3.Vec {
	return r3.Vec{X: m.At(i, 0), Y: m.At(i, 1), Z: m.At(i, 2)}
}
