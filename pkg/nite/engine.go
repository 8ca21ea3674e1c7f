// Package nite defines the contract of the external skeleton tracking engine
// and guards its process-wide lifecycle.
//
// Engines report failures as *StatusError values. Runtime wraps an Engine in
// the uninitialized -> ready -> shutdown state machine and rejects tracker
// operations outside the ready state.
package nite

//go:generate mockgen -destination=../mocks/nite.go -package=mocks github.com/skeletrack/skeletrack/pkg/nite Engine,UserTracker

import "github.com/skeletrack/skeletrack/pkg/types"

// Engine is the call surface of a tracking engine
type Engine interface {
	// Name identifies the engine in logs and recordings
	Name() string
	Initialize() error
	CreateUserTracker() (UserTracker, error)
	Shutdown()
}

// UserTracker yields frames of detected users.
type UserTracker interface {
	// ReadFrame blocks until the next frame is available and fills frame
	// in place.
	ReadFrame(frame *types.Frame) error
	// StartSkeletonTracking asks the engine to begin tracking the user's
	// skeleton. The engine does not report when tracking actually starts.
	StartSkeletonTracking(id types.UserID) error
	Close() error
}
