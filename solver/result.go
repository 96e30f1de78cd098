package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Result is the outcome of a single solve.
type Result struct {
	// Status is terminal solver status
	Status Status
	// Mode is the estimated state
	Mode Mode
	// Position is estimated emitter position; in PositionVelocity mode
	// it is the position at the reference epoch
	Position r3.Vec
	// Velocity is estimated emitter velocity; zero in Position mode
	Velocity r3.Vec
	// State is the estimated parameter vector
	State *mat.VecDense
	// Cov is the parameter covariance: inverse of the weighted normal
	// matrix at the solution. It is only set when Status is Converged.
	Cov *mat.SymDense
	// Residuals are observed minus predicted measurements at the estimate
	Residuals *mat.VecDense
	// ResNorms stores weighted residual norms of every accepted iterate,
	// starting with the initial guess
	ResNorms []float64
	// Iterations is the number of iterations run
	Iterations int
}

// Converged returns true if the solver converged.
func (r *Result) Converged() bool {
	return r.Status == Converged
}

// PositionCov returns the 3x3 position block of the covariance or nil if
// no covariance is available.
func (r *Result) PositionCov() *mat.SymDense {
	if r.Cov == nil {
		return nil
	}

	cov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			cov.SetSym(i, j, r.Cov.At(i, j))
		}
	}

	return cov
}

// PositionRMS returns sqrt(trace(PositionCov)), the root mean square
// position error predicted by the covariance. It returns NaN if no
// covariance is available.
func (r *Result) PositionRMS() float64 {
	cov := r.PositionCov()
	if cov == nil {
		return math.NaN()
	}

	return math.Sqrt(mat.Trace(cov))
}
