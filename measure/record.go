package measure

import (
	"fmt"
	"math"

	geoloc "github.com/milosgajdos/go-geoloc"
)

// Pair identifies an ordered pair of receivers.
type Pair struct {
	I int
	J int
}

// Swap returns the pair (J, I).
func (p Pair) Swap() Pair {
	return Pair{I: p.J, J: p.I}
}

// String implements the Stringer interface.
func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.I, p.J)
}

// Pairs returns all unordered receiver pairs (i, j) with i < j for n receivers.
func Pairs(n int) []Pair {
	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}

	return pairs
}

// Record is a single TDOA/FDOA measurement of a receiver pair at one epoch.
//
//	TDOA = delay_I - delay_J
//	FDOA = doppler_I - doppler_J
type Record struct {
	Pair
	// Epoch is measurement time in seconds
	Epoch float64
	// TDOA is time difference of arrival in seconds
	TDOA float64
	// FDOA is frequency difference of arrival in Hz
	FDOA float64
	// TDOAVar is TDOA variance in s^2
	TDOAVar float64
	// FDOAVar is FDOA variance in Hz^2
	FDOAVar float64
}

// Swap returns the same measurement expressed for pair (J, I).
func (r Record) Swap() Record {
	s := r
	s.Pair = r.Pair.Swap()
	s.TDOA = -r.TDOA
	s.FDOA = -r.FDOA

	return s
}

// Validate checks the record against a set of n receivers.
// It returns error wrapping geoloc.ErrInvalidInput if either receiver index
// is out of range, both indices are equal or the epoch is not finite.
// It returns error wrapping geoloc.ErrNumericalInstability if a measured value is not finite.
func (r Record) Validate(n int) error {
	if r.I < 0 || r.I >= n || r.J < 0 || r.J >= n {
		return fmt.Errorf("%w: receiver pair %v out of range [0, %d)", geoloc.ErrInvalidInput, r.Pair, n)
	}

	if r.I == r.J {
		return fmt.Errorf("%w: receiver pair %v refers to one receiver", geoloc.ErrInvalidInput, r.Pair)
	}

	if !finite(r.Epoch) {
		return fmt.Errorf("%w: non-finite epoch: %g", geoloc.ErrInvalidInput, r.Epoch)
	}

	if !finite(r.TDOA) || !finite(r.FDOA) {
		return fmt.Errorf("%w: non-finite measurement for pair %v at %g", geoloc.ErrNumericalInstability, r.Pair, r.Epoch)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
