package geoloc

import "errors"

var (
	// ErrConfig is returned when a scenario or a solver is configured with invalid parameters.
	ErrConfig = errors.New("invalid configuration")
	// ErrInvalidInput is returned when an operation receives malformed input data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDegenerateGeometry is returned when emitter and receiver positions coincide.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrNumericalInstability is returned when non-finite values appear in a computation.
	ErrNumericalInstability = errors.New("numerical instability")
)
