package solver

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	geoloc "github.com/milosgajdos/go-geoloc"
	"github.com/milosgajdos/go-geoloc/matrix"
	"github.com/milosgajdos/go-geoloc/measure"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// link is a receiver pair with receiver states known at the record epoch.
type link struct {
	// dt is record epoch relative to the reference epoch
	dt float64
	// i and j are receiver states
	i, j geoloc.State
}

// model predicts TDOA/FDOA records for a hypothesized emitter state.
type model struct {
	// mode is the estimated state
	mode Mode
	// obs selects residuals
	obs Observables
	// carrier is carrier frequency
	carrier float64
	// links stores receiver states of every record
	links []link
	// z is the observed measurement vector
	z *mat.VecDense
	// w is the residual weighting matrix
	w mat.Symmetric
}

func newModel(c *Config, records []measure.Record, receivers []geoloc.Trajectory) (*model, error) {
	per := c.Observables.perRecord()
	rows := per * len(records)

	m := &model{
		mode:    c.Mode,
		obs:     c.Observables,
		carrier: c.Carrier,
		links:   make([]link, len(records)),
		z:       mat.NewVecDense(rows, nil),
	}

	var weights []float64
	if c.Weights == nil {
		weights = make([]float64, rows)
	} else if c.Weights.SymmetricDim() != rows {
		return nil, fmt.Errorf("%w: weight matrix dimension %d does not match %d residuals",
			geoloc.ErrConfig, c.Weights.SymmetricDim(), rows)
	}

	for k, r := range records {
		if err := r.Validate(len(receivers)); err != nil {
			return nil, fmt.Errorf("record %d: %w", k, err)
		}

		si, err := geoloc.StateAt(receivers[r.I], r.Epoch)
		if err != nil {
			return nil, fmt.Errorf("receiver %d at %g: %w", r.I, r.Epoch, err)
		}

		sj, err := geoloc.StateAt(receivers[r.J], r.Epoch)
		if err != nil {
			return nil, fmt.Errorf("receiver %d at %g: %w", r.J, r.Epoch, err)
		}

		m.links[k] = link{dt: r.Epoch - c.RefEpoch, i: si, j: sj}

		row := k * per
		switch c.Observables {
		case TDOAFDOA:
			m.z.SetVec(row, r.TDOA)
			m.z.SetVec(row+1, r.FDOA)
		case TDOAOnly:
			m.z.SetVec(row, r.TDOA)
		case FDOAOnly:
			m.z.SetVec(row, r.FDOA)
		}

		if weights == nil {
			continue
		}

		if c.Observables != FDOAOnly {
			if !positive(r.TDOAVar) {
				return nil, fmt.Errorf("%w: record %d: invalid TDOA variance: %g", geoloc.ErrInvalidInput, k, r.TDOAVar)
			}
			weights[row] = 1 / r.TDOAVar
		}

		if c.Observables != TDOAOnly {
			if !positive(r.FDOAVar) {
				return nil, fmt.Errorf("%w: record %d: invalid FDOA variance: %g", geoloc.ErrInvalidInput, k, r.FDOAVar)
			}
			weights[row+per-1] = 1 / r.FDOAVar
		}
	}

	if weights != nil {
		m.w = mat.NewDiagDense(rows, weights)
	} else {
		if !matrix.AllFinite(c.Weights) {
			return nil, fmt.Errorf("%w: weight matrix contains non-finite values", geoloc.ErrConfig)
		}
		m.w = c.Weights
	}

	return m, nil
}

// rows returns number of residuals.
func (m *model) rows() int {
	return m.z.Len()
}

// params returns number of estimated parameters.
func (m *model) params() int {
	return m.mode.Dim()
}

// state packs emitter state into the parameter vector.
func (m *model) state(s geoloc.State) []float64 {
	x := []float64{s.Position.X, s.Position.Y, s.Position.Z}
	if m.mode == PositionVelocity {
		x = append(x, s.Velocity.X, s.Velocity.Y, s.Velocity.Z)
	}

	return x
}

// emitter returns emitter state at time dt past the reference epoch.
func (m *model) emitter(x []float64, dt float64) geoloc.State {
	s := geoloc.State{Position: r3.Vec{X: x[0], Y: x[1], Z: x[2]}}
	if m.mode == PositionVelocity {
		s.Velocity = r3.Vec{X: x[3], Y: x[4], Z: x[5]}
		s.Position = r3.Add(s.Position, r3.Scale(dt, s.Velocity))
	}

	return s
}

// predict stores measurements predicted for state x in y.
func (m *model) predict(y, x []float64) error {
	per := m.obs.perRecord()

	for k, l := range m.links {
		em := m.emitter(x, l.dt)

		oi, err := measure.Observe(em, l.i, m.carrier)
		if err != nil {
			return err
		}

		oj, err := measure.Observe(em, l.j, m.carrier)
		if err != nil {
			return err
		}

		row := k * per
		switch m.obs {
		case TDOAFDOA:
			y[row] = oi.Delay - oj.Delay
			y[row+1] = oi.Doppler - oj.Doppler
		case TDOAOnly:
			y[row] = oi.Delay - oj.Delay
		case FDOAOnly:
			y[row] = oi.Doppler - oj.Doppler
		}
	}

	return nil
}

// residual returns observed minus predicted measurements at state x.
func (m *model) residual(x []float64) (*mat.VecDense, error) {
	y := make([]float64, m.rows())
	if err := m.predict(y, x); err != nil {
		return nil, err
	}

	r := mat.NewVecDense(len(y), nil)
	r.SubVec(m.z, mat.NewVecDense(len(y), y))

	if !matrix.AllFinite(r) {
		return nil, fmt.Errorf("%w: non-finite residual", geoloc.ErrNumericalInstability)
	}

	return r, nil
}

// cost returns the weighted residual sum of squares r' * W * r.
func (m *model) cost(r mat.Vector) float64 {
	return mat.Inner(r, m.w, r)
}

// jacobian returns Jacobian of predicted measurements with respect to state x.
func (m *model) jacobian(x []float64, kind Jacobian) (*mat.Dense, error) {
	var (
		jac *mat.Dense
		err error
	)

	switch kind {
	case FiniteDiff:
		jac, err = m.numJacobian(x)
	default:
		jac, err = m.anaJacobian(x)
	}

	if err != nil {
		return nil, err
	}

	if !matrix.AllFinite(jac) {
		return nil, fmt.Errorf("%w: non-finite jacobian", geoloc.ErrNumericalInstability)
	}

	return jac, nil
}

// partials returns partial derivatives of delay and Doppler of a single
// link with respect to the state vector.
//
//	d(delay)/dp   = u / c
//	d(doppler)/dp = -(fc/c) * (vrel - (u . vrel) u) / range
//	d(delay)/dv   = dt * d(delay)/dp
//	d(doppler)/dv = dt * d(doppler)/dp + (fc/c) * u
func (m *model) partials(em, rx geoloc.State, dt float64) (dDelay, dDoppler []float64, err error) {
	u, rng, err := measure.LineOfSight(em.Position, rx.Position)
	if err != nil {
		return nil, nil, err
	}

	k := m.carrier / geoloc.SpeedOfLight
	vrel := r3.Sub(rx.Velocity, em.Velocity)

	gDelay := r3.Scale(1/geoloc.SpeedOfLight, u)
	gDoppler := r3.Scale(-k/rng, r3.Sub(vrel, r3.Scale(r3.Dot(u, vrel), u)))

	dDelay = []float64{gDelay.X, gDelay.Y, gDelay.Z}
	dDoppler = []float64{gDoppler.X, gDoppler.Y, gDoppler.Z}

	if m.mode == PositionVelocity {
		vDelay := r3.Scale(dt, gDelay)
		vDoppler := r3.Add(r3.Scale(dt, gDoppler), r3.Scale(k, u))
		dDelay = append(dDelay, vDelay.X, vDelay.Y, vDelay.Z)
		dDoppler = append(dDoppler, vDoppler.X, vDoppler.Y, vDoppler.Z)
	}

	return dDelay, dDoppler, nil
}

func (m *model) anaJacobian(x []float64) (*mat.Dense, error) {
	per := m.obs.perRecord()
	n := m.params()
	jac := mat.NewDense(m.rows(), n, nil)

	tdoa := make([]float64, n)
	fdoa := make([]float64, n)

	for k, l := range m.links {
		em := m.emitter(x, l.dt)

		di, fi, err := m.partials(em, l.i, l.dt)
		if err != nil {
			return nil, err
		}

		dj, fj, err := m.partials(em, l.j, l.dt)
		if err != nil {
			return nil, err
		}

		for c := 0; c < n; c++ {
			tdoa[c] = di[c] - dj[c]
			fdoa[c] = fi[c] - fj[c]
		}

		row := k * per
		switch m.obs {
		case TDOAFDOA:
			jac.SetRow(row, tdoa)
			jac.SetRow(row+1, fdoa)
		case TDOAOnly:
			jac.SetRow(row, tdoa)
		case FDOAOnly:
			jac.SetRow(row, fdoa)
		}
	}

	return jac, nil
}

func (m *model) numJacobian(x []float64) (*mat.Dense, error) {
	jac := mat.NewDense(m.rows(), m.params(), nil)

	var degenerate atomic.Bool
	fn := func(y, xs []float64) {
		if err := m.predict(y, xs); err != nil {
			for i := range y {
				y[i] = math.NaN()
			}
			if errors.Is(err, geoloc.ErrDegenerateGeometry) {
				degenerate.Store(true)
			}
		}
	}

	fd.Jacobian(jac, fn, x, &fd.JacobianSettings{
		Formula:    fd.Central,
		Concurrent: true,
	})

	if degenerate.Load() {
		return nil, fmt.Errorf("%w: finite difference step hit a receiver", geoloc.ErrDegenerateGeometry)
	}

	return jac, nil
}
