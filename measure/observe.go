package measure

import (
	"fmt"

	geoloc "github.com/milosgajdos/go-geoloc"
	"gonum.org/v1/gonum/spatial/r3"
)

// Observation is the geometry of a single emitter-receiver link at one epoch.
type Observation struct {
	// Range is emitter to receiver distance in metres
	Range float64
	// LOS is unit line-of-sight vector pointing from receiver to emitter
	LOS r3.Vec
	// Delay is propagation delay in seconds
	Delay float64
	// Doppler is Doppler shift in Hz
	Doppler float64
}

// LineOfSight returns the unit vector pointing from receiver position rx
// to emitter position em and the distance between them.
// It returns error wrapping geoloc.ErrDegenerateGeometry if the positions
// are closer than geoloc.MinRange.
func LineOfSight(em, rx r3.Vec) (r3.Vec, float64, error) {
	d := r3.Sub(em, rx)
	rng := r3.Norm(d)
	if !(rng >= geoloc.MinRange) {
		return r3.Vec{}, rng, fmt.Errorf("%w: range %g below %g", geoloc.ErrDegenerateGeometry, rng, geoloc.MinRange)
	}

	return r3.Scale(1/rng, d), rng, nil
}

// Delay returns propagation delay over rng metres.
func Delay(rng float64) float64 {
	return rng / geoloc.SpeedOfLight
}

// Doppler returns Doppler shift observed by a receiver moving with velocity
// rxVel from an emitter moving with velocity emVel at carrier frequency:
//
//	fd = -(carrier/c) * ((rxVel - emVel) . los)
func Doppler(los, rxVel, emVel r3.Vec, carrier float64) float64 {
	return -(carrier / geoloc.SpeedOfLight) * r3.Dot(r3.Sub(rxVel, emVel), los)
}

// Observe computes link geometry between emitter state em and receiver state rx.
// It returns error if the emitter and receiver positions coincide.
func Observe(em, rx geoloc.State, carrier float64) (Observation, error) {
	los, rng, err := LineOfSight(em.Position, rx.Position)
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		Range:   rng,
		LOS:     los,
		Delay:   Delay(rng),
		Doppler: Doppler(los, rx.Velocity, em.Velocity, carrier),
	}, nil
}
