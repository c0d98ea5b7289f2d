package core

import "errors"

var (
	// ErrMissingKernel is returned when the integration kernel cannot be resolved or loaded.
	// Bakes are disabled until a kernel is available.
	ErrMissingKernel = errors.New("integration kernel not available")

	// ErrInvalidDimension is returned for a non-positive LUT resolution.
	ErrInvalidDimension = errors.New("invalid LUT dimension")

	// ErrNothingToExport is returned when exporting before any successful bake.
	// Callers treat it as a no-op rather than a user-facing failure.
	ErrNothingToExport = errors.New("nothing baked yet")

	// ErrSessionClosed is returned by operations on a closed bake session.
	ErrSessionClosed = errors.New("bake session closed")
)
