package solver

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	geoloc "github.com/milosgajdos/go-geoloc"
	"gonum.org/v1/gonum/mat"
)

// Method is the iterative step computation method.
type Method int

const (
	// LevenbergMarquardt damps the Gauss-Newton step. Damping grows by
	// Config.LambdaUp after a step which does not reduce the weighted cost
	// and shrinks by Config.LambdaDown after a step which does.
	LevenbergMarquardt Method = iota
	// GaussNewton takes full undamped steps and accepts every step.
	GaussNewton
)

// String implements the Stringer interface.
func (m Method) String() string {
	switch m {
	case LevenbergMarquardt:
		return "LevenbergMarquardt"
	case GaussNewton:
		return "GaussNewton"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Mode selects the estimated emitter state.
type Mode int

const (
	// Position estimates a stationary emitter position: [x y z].
	Position Mode = iota
	// PositionVelocity estimates position at Config.RefEpoch and constant
	// velocity of the emitter: [x y z vx vy vz].
	PositionVelocity
)

// Dim returns the number of estimated parameters.
func (m Mode) Dim() int {
	if m == PositionVelocity {
		return 6
	}
	return 3
}

// String implements the Stringer interface.
func (m Mode) String() string {
	switch m {
	case Position:
		return "Position"
	case PositionVelocity:
		return "PositionVelocity"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Observables selects which record values contribute residuals.
type Observables int

const (
	// TDOAFDOA uses both TDOA and FDOA: two residuals per record.
	TDOAFDOA Observables = iota
	// TDOAOnly uses TDOA only.
	TDOAOnly
	// FDOAOnly uses FDOA only.
	FDOAOnly
)

// perRecord returns number of residuals contributed by a single record.
func (o Observables) perRecord() int {
	if o == TDOAFDOA {
		return 2
	}
	return 1
}

// Jacobian selects how the measurement Jacobian is computed.
type Jacobian int

const (
	// Analytic uses closed form partial derivatives of range and Doppler.
	Analytic Jacobian = iota
	// FiniteDiff uses central finite differences.
	FiniteDiff
)

// Damping selects the Levenberg-Marquardt damping matrix.
type Damping int

const (
	// Marquardt scales damping by the diagonal of the normal matrix.
	Marquardt Damping = iota
	// Levenberg uses identity damping.
	Levenberg
)

// Config is solver configuration.
type Config struct {
	// Method is the step computation method
	Method Method
	// Mode selects the estimated state
	Mode Mode
	// Observables selects the residuals
	Observables Observables
	// Jacobian selects Jacobian computation
	Jacobian Jacobian
	// Damping selects LM damping matrix
	Damping Damping
	// Carrier is carrier frequency in Hz used to predict FDOA
	Carrier float64
	// RefEpoch is the epoch of the estimated position in PositionVelocity mode
	RefEpoch float64
	// MaxIter is the iteration cap
	MaxIter int
	// StepTol is the state update norm below which the solver converges
	StepTol float64
	// CostTol is the relative weighted cost reduction below which the solver converges
	CostTol float64
	// Lambda is initial LM damping
	Lambda float64
	// LambdaUp multiplies damping after a rejected step
	LambdaUp float64
	// LambdaDown multiplies damping after an accepted step
	LambdaDown float64
	// LambdaMax is the damping above which no further progress is possible
	LambdaMax float64
	// CondLimit is the largest accepted condition number of the scaled normal matrix
	CondLimit float64
	// Weights is an optional residual weighting matrix.
	// If nil, residuals are weighted by inverse record variances.
	Weights mat.Symmetric
	// Logger logs solver progress; nil discards the logs
	Logger *slog.Logger
}

// DefaultConfig returns default Levenberg-Marquardt configuration for
// a position-only solve of signals at the given carrier frequency.
func DefaultConfig(carrier float64) Config {
	return Config{
		Method:      LevenbergMarquardt,
		Mode:        Position,
		Observables: TDOAFDOA,
		Jacobian:    Analytic,
		Damping:     Marquardt,
		Carrier:     carrier,
		MaxIter:     100,
		StepTol:     1e-6,
		CostTol:     1e-12,
		Lambda:      1e-3,
		LambdaUp:    10,
		LambdaDown:  0.1,
		LambdaMax:   1e16,
		CondLimit:   1e12,
	}
}

func (c *Config) validate() error {
	switch c.Method {
	case LevenbergMarquardt, GaussNewton:
	default:
		return fmt.Errorf("%w: unknown method: %v", geoloc.ErrConfig, c.Method)
	}

	switch c.Mode {
	case Position, PositionVelocity:
	default:
		return fmt.Errorf("%w: unknown mode: %v", geoloc.ErrConfig, c.Mode)
	}

	switch c.Observables {
	case TDOAFDOA, TDOAOnly, FDOAOnly:
	default:
		return fmt.Errorf("%w: unknown observables: %d", geoloc.ErrConfig, c.Observables)
	}

	switch c.Jacobian {
	case Analytic, FiniteDiff:
	default:
		return fmt.Errorf("%w: unknown jacobian: %d", geoloc.ErrConfig, c.Jacobian)
	}

	switch c.Damping {
	case Marquardt, Levenberg:
	default:
		return fmt.Errorf("%w: unknown damping: %d", geoloc.ErrConfig, c.Damping)
	}

	if c.Observables != TDOAOnly && !positive(c.Carrier) {
		return fmt.Errorf("%w: invalid carrier frequency: %g", geoloc.ErrConfig, c.Carrier)
	}

	if math.IsNaN(c.RefEpoch) || math.IsInf(c.RefEpoch, 0) {
		return fmt.Errorf("%w: invalid reference epoch: %g", geoloc.ErrConfig, c.RefEpoch)
	}

	if c.MaxIter <= 0 {
		return fmt.Errorf("%w: invalid iteration cap: %d", geoloc.ErrConfig, c.MaxIter)
	}

	if !positive(c.StepTol) || c.CostTol < 0 || math.IsNaN(c.CostTol) {
		return fmt.Errorf("%w: invalid tolerances: step=%g cost=%g", geoloc.ErrConfig, c.StepTol, c.CostTol)
	}

	if c.Method == LevenbergMarquardt {
		if !positive(c.Lambda) || !(c.LambdaUp > 1) || !(c.LambdaDown > 0 && c.LambdaDown < 1) || !(c.LambdaMax > c.Lambda) {
			return fmt.Errorf("%w: invalid damping parameters: lambda=%g up=%g down=%g max=%g",
				geoloc.ErrConfig, c.Lambda, c.LambdaUp, c.LambdaDown, c.LambdaMax)
		}
	}

	if !(c.CondLimit > 1) {
		return fmt.Errorf("%w: invalid condition number limit: %g", geoloc.ErrConfig, c.CondLimit)
	}

	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
