package spectral

import "errors"

var (
	// ErrUnknownSensor indicates a sensor name outside the supported
	// variants.
	ErrUnknownSensor = errors.New("spectral: unknown sensor")
	// ErrMissingBand indicates a scene lacks a band the pipeline needs.
	ErrMissingBand = errors.New("spectral: missing band")
)
