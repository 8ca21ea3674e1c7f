package driver

import "errors"

// Sentinel errors for fatal startup failures. The engine's *nite.StatusError
// is wrapped alongside, so both errors.Is and errors.As work.
var (
	// ErrInitialize indicates the engine could not be initialized
	ErrInitialize = errors.New("unable to initialize engine")

	// ErrCreateTracker indicates the user tracker could not be created
	ErrCreateTracker = errors.New("unable to create user tracker")
)
