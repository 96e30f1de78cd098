// Package scenario bundles a time base, an emitter and a set of receivers
// into an immutable, validated geolocation scenario.
package scenario

import (
	"fmt"
	"math"

	geoloc "github.com/milosgajdos/go-geoloc"
)

// MinReceivers is the smallest number of receivers which produces at least one TDOA pair.
const MinReceivers = 2

// Platform is a named platform moving along a trajectory.
type Platform struct {
	// Name identifies the platform
	Name string
	// Trajectory is platform trajectory
	Trajectory geoloc.Trajectory
}

// Emitter is the transmitting platform.
type Emitter struct {
	Platform
}

// Receiver is a passive receiving platform.
type Receiver struct {
	Platform
}

// NewEmitter creates new emitter and returns it.
func NewEmitter(name string, tr geoloc.Trajectory) Emitter {
	return Emitter{Platform{Name: name, Trajectory: tr}}
}

// NewReceiver creates new receiver and returns it.
func NewReceiver(name string, tr geoloc.Trajectory) Receiver {
	return Receiver{Platform{Name: name, Trajectory: tr}}
}

// Scenario is an immutable geolocation scenario.
type Scenario struct {
	// times is the time base
	times []float64
	// emitter is the emitting platform
	emitter Emitter
	// receivers are receiving platforms
	receivers []Receiver
	// carrier is carrier frequency in Hz
	carrier float64
	// rate is sample rate in samples per second
	rate float64
}

// New creates new Scenario and returns it.
// It accepts the following parameters:
// - times:     strictly increasing time samples in seconds
// - emitter:   emitting platform
// - receivers: receiving platforms
// - carrier:   carrier frequency in Hz
// - rate:      receiver sample rate in samples per second
// It returns error wrapping geoloc.ErrConfig if either of the following conditions is met:
// - times is empty, not strictly increasing or contains non-finite values
// - fewer than MinReceivers receivers are given
// - any platform has no trajectory or two receivers share a non-empty name
// - carrier or rate is not strictly positive
func New(times []float64, emitter Emitter, receivers []Receiver, carrier, rate float64) (*Scenario, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: empty time sequence", geoloc.ErrConfig)
	}

	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: non-finite time sample %d: %g", geoloc.ErrConfig, i, t)
		}
		if i > 0 && !(t > times[i-1]) {
			return nil, fmt.Errorf("%w: time sequence not strictly increasing at sample %d", geoloc.ErrConfig, i)
		}
	}

	if len(receivers) < MinReceivers {
		return nil, fmt.Errorf("%w: need at least %d receivers, got %d", geoloc.ErrConfig, MinReceivers, len(receivers))
	}

	if emitter.Trajectory == nil {
		return nil, fmt.Errorf("%w: emitter %q has no trajectory", geoloc.ErrConfig, emitter.Name)
	}

	names := make(map[string]struct{}, len(receivers))
	for i, r := range receivers {
		if r.Trajectory == nil {
			return nil, fmt.Errorf("%w: receiver %d has no trajectory", geoloc.ErrConfig, i)
		}
		if r.Name == "" {
			continue
		}
		if _, ok := names[r.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate receiver name: %q", geoloc.ErrConfig, r.Name)
		}
		names[r.Name] = struct{}{}
	}

	if !(carrier > 0) || math.IsInf(carrier, 0) {
		return nil, fmt.Errorf("%w: invalid carrier frequency: %g", geoloc.ErrConfig, carrier)
	}

	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: invalid sample rate: %g", geoloc.ErrConfig, rate)
	}

	ts := make([]float64, len(times))
	copy(ts, times)

	rx := make([]Receiver, len(receivers))
	copy(rx, receivers)

	return &Scenario{
		times:     ts,
		emitter:   emitter,
		receivers: rx,
		carrier:   carrier,
		rate:      rate,
	}, nil
}

// Times returns a copy of the scenario time base.
func (s *Scenario) Times() []float64 {
	ts := make([]float64, len(s.times))
	copy(ts, s.times)

	return ts
}

// Emitter returns scenario emitter.
func (s *Scenario) Emitter() Emitter {
	return s.emitter
}

// Receivers returns a copy of scenario receivers.
func (s *Scenario) Receivers() []Receiver {
	rx := make([]Receiver, len(s.receivers))
	copy(rx, s.receivers)

	return rx
}

// Trajectories returns receiver trajectories in receiver order.
func (s *Scenario) Trajectories() []geoloc.Trajectory {
	trs := make([]geoloc.Trajectory, len(s.receivers))
	for i, r := range s.receivers {
		trs[i] = r.Trajectory
	}

	return trs
}

// Carrier returns carrier frequency in Hz.
func (s *Scenario) Carrier() float64 {
	return s.carrier
}

// SampleRate returns receiver sample rate in samples per second.
func (s *Scenario) SampleRate() float64 {
	return s.rate
}

// Len returns number of time samples.
func (s *Scenario) Len() int {
	return len(s.times)
}
