// Package measure synthesizes noiseless range, delay, Doppler, TDOA and FDOA
// series from a scenario and defines the measurement record exchanged with
// the solver.
package measure

import (
	"fmt"

	geoloc "github.com/milosgajdos/go-geoloc"
	"github.com/milosgajdos/go-geoloc/scenario"
	"gonum.org/v1/gonum/mat"
)

// Series is ground truth link geometry of a single receiver.
type Series struct {
	// Name is receiver name
	Name string
	// Range is emitter to receiver distance in metres
	Range []float64
	// LOS stores receiver to emitter unit vectors in its rows
	LOS *mat.Dense
	// Delay is propagation delay in seconds
	Delay []float64
	// Doppler is Doppler shift in Hz
	Doppler []float64
}

// PairSeries is ground truth TDOA and FDOA of a receiver pair.
type PairSeries struct {
	Pair
	// TDOA is time difference of arrival in seconds
	TDOA []float64
	// FDOA is frequency difference of arrival in Hz
	FDOA []float64
	// Lag is TDOA expressed in (fractional) samples
	Lag []float64
}

// GroundTruth is noiseless measurement ground truth of a scenario.
type GroundTruth struct {
	// Times is the scenario time base
	Times []float64
	// Carrier is carrier frequency in Hz
	Carrier float64
	// SampleRate is receiver sample rate
	SampleRate float64
	// Receivers stores per receiver series in scenario receiver order
	Receivers []Series
	// Pairs stores series of all receiver pairs (i, j) with i < j
	Pairs []PairSeries
}

// Synthesize computes noiseless ground truth of scenario s.
// It returns error wrapping geoloc.ErrDegenerateGeometry if the emitter
// coincides with any receiver at any time sample.
func Synthesize(s *scenario.Scenario) (*GroundTruth, error) {
	times := s.Times()
	n := len(times)

	emPos, err := s.Emitter().Trajectory.Position(times)
	if err != nil {
		return nil, fmt.Errorf("emitter position: %w", err)
	}

	emVel, err := s.Emitter().Trajectory.Velocity(times)
	if err != nil {
		return nil, fmt.Errorf("emitter velocity: %w", err)
	}

	receivers := s.Receivers()
	series := make([]Series, len(receivers))

	for i, rx := range receivers {
		rxPos, err := rx.Trajectory.Position(times)
		if err != nil {
			return nil, fmt.Errorf("receiver %d position: %w", i, err)
		}

		rxVel, err := rx.Trajectory.Velocity(times)
		if err != nil {
			return nil, fmt.Errorf("receiver %d velocity: %w", i, err)
		}

		sr := Series{
			Name:    rx.Name,
			Range:   make([]float64, n),
			LOS:     mat.NewDense(n, 3, nil),
			Delay:   make([]float64, n),
			Doppler: make([]float64, n),
		}

		for k := 0; k < n; k++ {
			em := geoloc.State{Position: geoloc.RowVec(emPos, k), Velocity: geoloc.RowVec(emVel, k)}
			st := geoloc.State{Position: geoloc.RowVec(rxPos, k), Velocity: geoloc.RowVec(rxVel, k)}

			obs, err := Observe(em, st, s.Carrier())
			if err != nil {
				return nil, fmt.Errorf("receiver %d at t=%g: %w", i, times[k], err)
			}

			sr.Range[k] = obs.Range
			sr.LOS.SetRow(k, []float64{obs.LOS.X, obs.LOS.Y, obs.LOS.Z})
			sr.Delay[k] = obs.Delay
			sr.Doppler[k] = obs.Doppler
		}

		series[i] = sr
	}

	pairs := Pairs(len(receivers))
	pseries := make([]PairSeries, len(pairs))

	for p, pair := range pairs {
		ps := PairSeries{
			Pair: pair,
			TDOA: make([]float64, n),
			FDOA: make([]float64, n),
			Lag:  make([]float64, n),
		}

		for k := 0; k < n; k++ {
			ps.TDOA[k] = series[pair.I].Delay[k] - series[pair.J].Delay[k]
			ps.FDOA[k] = series[pair.I].Doppler[k] - series[pair.J].Doppler[k]
			ps.Lag[k] = ps.TDOA[k] * s.SampleRate()
		}

		pseries[p] = ps
	}

	return &GroundTruth{
		Times:      times,
		Carrier:    s.Carrier(),
		SampleRate: s.SampleRate(),
		Receivers:  series,
		Pairs:      pseries,
	}, nil
}

// Pair returns series of receiver pair (i, j).
// Pairs with i > j are derived from (j, i) by negation.
// It returns error if either index is out of range or i equals j.
func (g *GroundTruth) Pair(i, j int) (PairSeries, error) {
	n := len(g.Receivers)
	if i < 0 || i >= n || j < 0 || j >= n || i == j {
		return PairSeries{}, fmt.Errorf("%w: invalid receiver pair (%d,%d)", geoloc.ErrInvalidInput, i, j)
	}

	if i > j {
		ps, err := g.Pair(j, i)
		if err != nil {
			return PairSeries{}, err
		}
		return ps.negate(), nil
	}

	for _, ps := range g.Pairs {
		if ps.I == i && ps.J == j {
			return ps, nil
		}
	}

	return PairSeries{}, fmt.Errorf("%w: receiver pair (%d,%d) not found", geoloc.ErrInvalidInput, i, j)
}

func (ps PairSeries) negate() PairSeries {
	neg := PairSeries{
		Pair: ps.Pair.Swap(),
		TDOA: make([]float64, len(ps.TDOA)),
		FDOA: make([]float64, len(ps.FDOA)),
		Lag:  make([]float64, len(ps.Lag)),
	}

	for k := range ps.TDOA {
		neg.TDOA[k] = -ps.TDOA[k]
		neg.FDOA[k] = -ps.FDOA[k]
		neg.Lag[k] = -ps.Lag[k]
	}

	return neg
}

// Records converts ground truth to measurement records, one per pair and epoch,
// ordered by epoch and then by pair. Every record carries the given variances.
// It returns error if either variance is not strictly positive.
func (g *GroundTruth) Records(tdoaVar, fdoaVar float64) ([]Record, error) {
	if !(tdoaVar > 0) || !(fdoaVar > 0) {
		return nil, fmt.Errorf("%w: variances must be positive: tdoa=%g fdoa=%g", geoloc.ErrInvalidInput, tdoaVar, fdoaVar)
	}

	records := make([]Record, 0, len(g.Times)*len(g.Pairs))
	for k, t := range g.Times {
		for _, ps := range g.Pairs {
			records = append(records, Record{
				Pair:    ps.Pair,
				Epoch:   t,
				TDOA:    ps.TDOA[k],
				FDOA:    ps.FDOA[k],
				TDOAVar: tdoaVar,
				FDOAVar: fdoaVar,
			})
		}
	}

	return records, nil
}
