// Package driver runs a polling session against a tracking engine: it
// initializes the engine, creates a user tracker, reads frames until the
// context is cancelled and always shuts the engine down afterwards.
package driver

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/trace"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// Stats is a snapshot of session counters. Failed reads are only logged,
// never counted.
type Stats struct {
	Frames        uint64
	UsersAppeared uint64
	Skeletons     uint64
}

// Session is the polling session driver. A Session drives one Runtime and
// is not reusable.
type Session struct {
	runtime   *nite.Runtime
	console   *Console
	logger    logger.Logger
	observers []Observer

	frames        atomic.Uint64
	usersAppeared atomic.Uint64
	skeletons     atomic.Uint64
}

// NewSession creates a session for the runtime. Observers are notified in
// the given order.
func NewSession(runtime *nite.Runtime, console *Console, log logger.Logger, observers ...Observer) *Session {
	return &Session{
		runtime:   runtime,
		console:   console,
		logger:    log.WithTarget("driver"),
		observers: observers,
	}
}

// AddObserver registers an observer. It must be called before Run.
func (s *Session) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Stats returns the current counters. It is safe to call concurrently with Run.
func (s *Session) Stats() Stats {
	return Stats{
		Frames:        s.frames.Load(),
		UsersAppeared: s.usersAppeared.Load(),
		Skeletons:     s.skeletons.Load(),
	}
}

// Run initializes the engine, creates a tracker and polls frames until ctx
// is cancelled. Cancellation is a normal exit and returns nil. Once the
// engine is initialized it is shut down exactly once, whatever way Run
// returns, including a panic in an observer.
func (s *Session) Run(ctx context.Context) error {
	if trace.SessionID(ctx) == "" {
		ctx = trace.NewSession(ctx, s.runtime.EngineName())
	}
	log := logger.WithContext(ctx, s.logger)

	if err := s.runtime.Initialize(); err != nil {
		log.Error("Unable to initialize NiTE", logger.WithField("error", err))
		return fmt.Errorf("%w: %w", ErrInitialize, err)
	}
	defer s.teardown(log)

	tracker, err := s.runtime.NewUserTracker()
	if err != nil {
		s.console.TrackerFailed(nite.StatusOf(err))
		return fmt.Errorf("%w: %w", ErrCreateTracker, err)
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			log.Warn("Failed to release user tracker", logger.WithField("error", err))
		}
	}()
	s.console.TrackerCreated()

	s.poll(ctx, tracker, log)
	return nil
}

func (s *Session) poll(ctx context.Context, tracker nite.UserTracker, log logger.Logger) {
	var frame types.Frame

	for ctx.Err() == nil {
		if err := tracker.ReadFrame(&frame); err != nil {
			log.Warn("Error reading frame",
				logger.WithField("status", nite.StatusOf(err)),
				logger.WithField("error", err))
			continue
		}
		s.frames.Add(1)

		fctx := trace.WithFrame(ctx, frame.Index)
		s.notify(log, "frame read", func(o Observer) error {
			return o.FrameRead(fctx, &frame)
		})

		for i := range frame.Users {
			user := &frame.Users[i]
			if user.IsNew() {
				s.appeared(fctx, tracker, &frame, user, log)
			} else {
				s.skeletons.Add(1)
				s.console.Skeleton(user)
				s.notify(log, "skeleton read", func(o Observer) error {
					return o.SkeletonRead(fctx, &frame, user)
				})
			}
		}
	}
}

func (s *Session) appeared(ctx context.Context, tracker nite.UserTracker, frame *types.Frame, user *types.User, log logger.Logger) {
	s.usersAppeared.Add(1)
	s.console.Appeared(user)

	// Fire and forget: the engine reports tracking progress through the
	// skeleton state of later frames.
	if err := tracker.StartSkeletonTracking(user.ID); err != nil {
		log.Debug("Start skeleton tracking failed",
			logger.WithField("user", user.ID),
			logger.WithField("error", err))
	}

	s.notify(log, "user appeared", func(o Observer) error {
		return o.UserAppeared(ctx, frame, user)
	})
}

func (s *Session) notify(log logger.Logger, event string, call func(Observer) error) {
	for _, o := range s.observers {
		if err := call(o); err != nil {
			log.Warn("Observer failed",
				logger.WithField("event", event),
				logger.WithField("observer", fmt.Sprintf("%T", o)),
				logger.WithField("error", err))
		}
	}
}

func (s *Session) teardown(log logger.Logger) {
	s.console.ShuttingDown()
	s.runtime.Shutdown()

	stats := s.Stats()
	log.Info("Session finished",
		logger.WithField("frames", stats.Frames),
		logger.WithField("users_appeared", stats.UsersAppeared),
		logger.WithField("skeletons", stats.Skeletons))
}
