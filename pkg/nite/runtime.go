package nite

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// State is a lifecycle phase of a Runtime
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Runtime owns an Engine and enforces its lifecycle. A Runtime is single use:
// once shut down it cannot be initialized again.
type Runtime struct {
	engine Engine
	logger logger.Logger

	state    atomic.Int32
	mu       sync.Mutex
	trackers map[*Tracker]struct{}
}

// NewRuntime creates an uninitialized runtime for the engine
func NewRuntime(engine Engine, log logger.Logger) *Runtime {
	return &Runtime{
		engine:   engine,
		logger:   log.WithTarget(engine.Name()),
		trackers: make(map[*Tracker]struct{}),
	}
}

// EngineName returns the wrapped engine's name
func (r *Runtime) EngineName() string {
	return r.engine.Name()
}

// State returns the current lifecycle phase
func (r *Runtime) State() State {
	return State(r.state.Load())
}

// Initialize initializes the engine. A failed initialization leaves the
// runtime uninitialized so the caller may retry.
func (r *Runtime) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.State() {
	case StateReady:
		return ErrAlreadyInitialized
	case StateShutdown:
		return ErrShutdown
	}

	if err := r.engine.Initialize(); err != nil {
		return err
	}

	r.state.Store(int32(StateReady))
	r.logger.Debug("Engine initialized")
	return nil
}

// NewUserTracker creates a tracker bound to the default device
func (r *Runtime) NewUserTracker() (*Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State() != StateReady {
		return nil, ErrNotReady
	}

	ut, err := r.engine.CreateUserTracker()
	if err != nil {
		return nil, err
	}

	t := &Tracker{runtime: r, tracker: ut}
	r.trackers[t] = struct{}{}
	return t, nil
}

// Shutdown releases every open tracker and shuts the engine down. Calling it
// more than once, or before Initialize, is harmless.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.State()
	r.state.Store(int32(StateShutdown))
	if previous != StateReady {
		return
	}

	for t := range r.trackers {
		if t.closed.CompareAndSwap(false, true) {
			if err := t.tracker.Close(); err != nil {
				r.logger.Warn("Failed to release user tracker", logger.WithField("error", err))
			}
		}
		delete(r.trackers, t)
	}

	r.engine.Shutdown()
	r.logger.Debug("Engine shut down")
}

func (r *Runtime) release(t *Tracker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, t)
}

// Tracker is a user tracker whose calls are only forwarded while the owning
// runtime is ready.
type Tracker struct {
	runtime *Runtime
	tracker UserTracker
	closed  atomic.Bool
}

var _ UserTracker = (*Tracker)(nil)

func (t *Tracker) usable() error {
	if t.closed.Load() {
		return ErrTrackerClosed
	}
	if t.runtime.State() != StateReady {
		return ErrNotReady
	}
	return nil
}

// ReadFrame blocks until the engine delivers the next frame
func (t *Tracker) ReadFrame(frame *types.Frame) error {
	if err := t.usable(); err != nil {
		return &StatusError{Op: "read frame", Status: StatusFailed, Err: err}
	}
	return t.tracker.ReadFrame(frame)
}

// StartSkeletonTracking asks the engine to track the user's skeleton
func (t *Tracker) StartSkeletonTracking(id types.UserID) error {
	if err := t.usable(); err != nil {
		return &StatusError{Op: "start skeleton tracking", Status: StatusFailed, Err: err}
	}
	return t.tracker.StartSkeletonTracking(id)
}

// Close releases the tracker. It is safe to call more than once.
func (t *Tracker) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.runtime.release(t)
	return t.tracker.Close()
}
