package noise

import "github.com/milosgajdos/go-geoloc/measure"

// Zero is zero noise i.e. no noise
type Zero struct{}

// NewZero creates new zero noise and returns it.
func NewZero() *Zero {
	return &Zero{}
}

// Perturb returns an unmodified copy of records.
func (e *Zero) Perturb(records []measure.Record) []measure.Record {
	out := make([]measure.Record, len(records))
	copy(out, records)

	return out
}

// Reset does nothing: it's here to implement Model interface
func (e *Zero) Reset() error { return nil }

// String implements the Stringer interface.
func (e *Zero) String() string {
	return "Zero{}"
}
