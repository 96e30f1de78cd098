// Package kinematics provides deterministic trajectory generators.
//
// Every trajectory evaluates each time sample independently, so evaluating
// a subsequence of times yields the same rows as evaluating the full
// sequence and slicing the result.
package kinematics

import (
	"fmt"
	"math"

	geoloc "github.com/milosgajdos/go-geoloc"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Span returns n evenly spaced time samples from start to end inclusive.
// It returns error if n is smaller than 1 or if end is smaller than start.
func Span(start, end float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: invalid number of time samples: %d", geoloc.ErrInvalidInput, n)
	}

	if n == 1 {
		return []float64{start}, nil
	}

	if !(end > start) {
		return nil, fmt.Errorf("%w: invalid time interval: [%g, %g]", geoloc.ErrInvalidInput, start, end)
	}

	return floats.Span(make([]float64, n), start, end), nil
}

func checkTimes(t []float64) error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty time sequence", geoloc.ErrInvalidInput)
	}

	if floats.HasNaN(t) {
		return fmt.Errorf("%w: time sequence contains NaN", geoloc.ErrInvalidInput)
	}

	for _, v := range t {
		if math.IsInf(v, 0) {
			return fmt.Errorf("%w: time sequence contains Inf", geoloc.ErrInvalidInput)
		}
	}

	return nil
}

func checkVec(name string, v r3.Vec) error {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: non-finite %s: %v", geoloc.ErrInvalidInput, name, v)
		}
	}

	return nil
}
