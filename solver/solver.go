// Package solver estimates emitter state from TDOA/FDOA measurements with
// iterative weighted nonlinear least squares.
//
// Each iteration linearizes the measurement model at the current estimate x
// and solves the weighted normal equations
//
//	(J'WJ + lambda*D) dx = J'W(z - h(x))
//
// where J is the Jacobian of the predicted measurements h, W is the weighting
// matrix (inverse measurement variances by default) and D is the damping
// matrix. GaussNewton uses lambda = 0. The normal equations are Jacobi scaled
// before solving so that parameters of different units share one condition
// number, which is checked against Config.CondLimit before every solve.
package solver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	geoloc "github.com/milosgajdos/go-geoloc"
	"github.com/milosgajdos/go-geoloc/matrix"
	"github.com/milosgajdos/go-geoloc/measure"
	mx "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Solver is a TDOA/FDOA geolocation solver.
// Solver holds no state between Solve calls and is safe for concurrent use.
type Solver struct {
	// cfg is solver configuration
	cfg Config
	// log is solver logger
	log *slog.Logger
}

// New creates new Solver with configuration c and returns it.
// It returns error wrapping geoloc.ErrConfig if c is invalid.
func New(c Config) (*Solver, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	return &Solver{
		cfg: c,
		log: c.logger(),
	}, nil
}

// Config returns solver configuration.
func (s *Solver) Config() Config {
	return s.cfg
}

// Solve estimates emitter state from records observed by receivers moving
// along the given trajectories, starting from the initial guess init.
// Record pair indices refer to receivers. Velocity of init is only used in
// PositionVelocity mode.
//
// Expected outcomes, including non-convergence and degenerate geometry, are
// reported in Result.Status. Solve returns error if the input is invalid or
// if non-finite values appear in residuals or the Jacobian.
func (s *Solver) Solve(records []measure.Record, receivers []geoloc.Trajectory, init geoloc.State) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no measurement records", geoloc.ErrInvalidInput)
	}

	if len(receivers) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 receivers, got %d", geoloc.ErrInvalidInput, len(receivers))
	}

	for i, r := range receivers {
		if r == nil {
			return nil, fmt.Errorf("%w: receiver %d has no trajectory", geoloc.ErrInvalidInput, i)
		}
	}

	m, err := newModel(&s.cfg, records, receivers)
	if err != nil {
		return nil, err
	}

	x := m.state(init)
	if floats.HasNaN(x) || math.IsInf(floats.Norm(x, math.Inf(1)), 0) {
		return nil, fmt.Errorf("%w: non-finite initial guess", geoloc.ErrInvalidInput)
	}

	res := &Result{
		Status: Init,
		Mode:   s.cfg.Mode,
	}

	r, err := m.residual(x)
	if err != nil {
		return s.degenerate(res, m, x, nil, err)
	}

	cost := m.cost(r)
	res.ResNorms = append(res.ResNorms, math.Sqrt(cost))
	res.Status = Iterating

	lambda := s.cfg.Lambda
	if s.cfg.Method == GaussNewton {
		lambda = 0
	}

	if m.rows() < m.params() {
		s.log.Debug("fewer residuals than parameters", "rows", m.rows(), "params", m.params())
		res.Status = Singular
	}

	var (
		n     *mat.SymDense
		g     *mat.VecDense
		stale = true
	)

	for res.Status == Iterating {
		if res.Iterations >= s.cfg.MaxIter {
			res.Status = MaxIterations
			break
		}
		res.Iterations++

		if stale {
			jac, err := m.jacobian(x, s.cfg.Jacobian)
			if err != nil {
				return s.degenerate(res, m, x, r, err)
			}

			n, g = normal(jac, m.w, r)
			if cond := matrix.ScaledCond(n); !(cond <= s.cfg.CondLimit) {
				s.log.Debug("normal matrix is ill-conditioned", "iter", res.Iterations, "cond", cond)
				res.Status = Singular
				break
			}
			stale = false
		}

		dx, ok := s.step(n, g, lambda)
		if !ok {
			res.Status = Singular
			break
		}

		stepNorm := floats.Norm(dx, 2)
		xNew := make([]float64, len(x))
		floats.AddTo(xNew, x, dx)

		rNew, err := m.residual(xNew)
		if err != nil && !errors.Is(err, geoloc.ErrDegenerateGeometry) {
			return nil, err
		}

		costNew := math.Inf(1)
		if err == nil {
			costNew = m.cost(rNew)
		}

		s.log.Debug("iteration",
			"iter", res.Iterations,
			"cost", cost,
			"trial_cost", costNew,
			"lambda", lambda,
			"step", stepNorm)

		if s.cfg.Method == LevenbergMarquardt && !(costNew <= cost) {
			// rejected step
			if stepNorm < s.cfg.StepTol {
				res.Status = Converged
				break
			}
			lambda *= s.cfg.LambdaUp
			if lambda > s.cfg.LambdaMax {
				s.log.Debug("damping limit reached", "lambda", lambda)
				res.Status = Converged
			}
			continue
		}

		if math.IsInf(costNew, 1) {
			// undamped step hit a receiver
			return s.degenerate(res, m, xNew, nil, err)
		}

		prev := cost
		x, r, cost = xNew, rNew, costNew
		stale = true
		res.ResNorms = append(res.ResNorms, math.Sqrt(cost))
		if s.cfg.Method == LevenbergMarquardt {
			lambda = math.Max(lambda*s.cfg.LambdaDown, minLambda)
		}

		if stepNorm < s.cfg.StepTol || cost == 0 || math.Abs(prev-cost) <= s.cfg.CostTol*prev {
			res.Status = Converged
		}
	}

	res.Residuals = r
	s.finish(res, m, x)

	if res.Status == Converged {
		cov, err := s.covariance(m, x)
		if err != nil {
			if !errors.Is(err, errSingular) {
				return nil, err
			}
			res.Status = Singular
		}
		res.Cov = cov
	}

	s.log.Debug("solve finished",
		"status", res.Status.String(),
		"iterations", res.Iterations,
		"res_norm", res.ResNorms[len(res.ResNorms)-1])

	return res, nil
}

// minLambda keeps LM damping from underflowing after long runs of accepted steps.
const minLambda = 1e-15

var errSingular = errors.New("singular normal matrix")

// degenerate terminates the solve with Singular status if err is a
// degenerate geometry error and returns err otherwise.
func (s *Solver) degenerate(res *Result, m *model, x []float64, r *mat.VecDense, err error) (*Result, error) {
	if !errors.Is(err, geoloc.ErrDegenerateGeometry) {
		return nil, err
	}

	s.log.Debug("degenerate geometry", "err", err)

	res.Status = Singular
	res.Residuals = r
	s.finish(res, m, x)

	return res, nil
}

// finish stores the estimate x in res.
func (s *Solver) finish(res *Result, m *model, x []float64) {
	state := make([]float64, len(x))
	copy(state, x)

	res.State = mat.NewVecDense(len(state), state)
	res.Position = r3.Vec{X: x[0], Y: x[1], Z: x[2]}
	if m.mode == PositionVelocity {
		res.Velocity = r3.Vec{X: x[3], Y: x[4], Z: x[5]}
	}
}

// normal returns the normal matrix J'WJ and the gradient vector J'Wr.
func normal(jac *mat.Dense, w mat.Symmetric, r mat.Vector) (*mat.SymDense, *mat.VecDense) {
	n := matrix.NormalSym(jac, w)

	wr := &mat.VecDense{}
	wr.MulVec(w, r)

	g := &mat.VecDense{}
	g.MulVec(jac.T(), wr)

	return n, g
}

// step solves the damped, Jacobi scaled normal equations for the state update.
// It returns false if the damped normal matrix is not positive definite.
func (s *Solver) step(n *mat.SymDense, g *mat.VecDense, lambda float64) ([]float64, bool) {
	ns, d, ok := matrix.JacobiScale(n)
	if !ok {
		return nil, false
	}

	size := len(d)
	a := ns
	if lambda > 0 {
		// damping matrix in the scaled variables
		damp, err := mx.NewDenseValIdentity(size, lambda)
		if err != nil {
			return nil, false
		}
		if s.cfg.Damping == Levenberg {
			for i := 0; i < size; i++ {
				damp.Set(i, i, lambda*d[i]*d[i])
			}
		}
		sum := &mat.Dense{}
		sum.Add(ns, damp)
		a = matrix.Sym(sum, size)
	}

	gs := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		gs.SetVec(i, g.AtVec(i)*d[i])
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}

	y := &mat.VecDense{}
	if err := chol.SolveVecTo(y, gs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}

	dx := make([]float64, size)
	for i := range dx {
		dx[i] = y.AtVec(i) * d[i]
	}

	if floats.HasNaN(dx) {
		return nil, false
	}

	return dx, true
}

// covariance returns the inverse of the weighted normal matrix at x.
func (s *Solver) covariance(m *model, x []float64) (*mat.SymDense, error) {
	jac, err := m.jacobian(x, s.cfg.Jacobian)
	if err != nil {
		if errors.Is(err, geoloc.ErrDegenerateGeometry) {
			return nil, errSingular
		}
		return nil, err
	}

	n := matrix.NormalSym(jac, m.w)
	if cond := matrix.ScaledCond(n); !(cond <= s.cfg.CondLimit) {
		return nil, errSingular
	}

	ns, d, ok := matrix.JacobiScale(n)
	if !ok {
		return nil, errSingular
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ns); !ok {
		return nil, errSingular
	}

	inv := mat.NewSymDense(len(d), nil)
	if err := chol.InverseTo(inv); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errSingular
		}
	}

	cov := mat.NewSymDense(len(d), nil)
	for i := range d {
		for j := i; j < len(d); j++ {
			cov.SetSym(i, j, inv.At(i, j)*d[i]*d[j])
		}
	}

	return cov, nil
}
