// Package noise perturbs noiseless TDOA/FDOA measurement records.
package noise

import "github.com/milosgajdos/go-geoloc/measure"

// Model is a measurement noise model.
type Model interface {
	// Perturb returns noisy copies of records
	Perturb([]measure.Record) []measure.Record
	// Reset resets the noise to its initial state
	Reset() error
}
