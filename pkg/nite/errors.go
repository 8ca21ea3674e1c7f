package nite

import "errors"

// Sentinel errors for runtime lifecycle violations. Check with errors.Is.
var (
	// ErrNotReady indicates a tracker operation outside the ready state
	ErrNotReady = errors.New("engine is not initialized")

	// ErrAlreadyInitialized indicates a second Initialize on a ready runtime
	ErrAlreadyInitialized = errors.New("engine is already initialized")

	// ErrShutdown indicates the runtime was shut down and cannot be reused
	ErrShutdown = errors.New("engine has been shut down")

	// ErrTrackerClosed indicates use of a released tracker
	ErrTrackerClosed = errors.New("user tracker is closed")
)
