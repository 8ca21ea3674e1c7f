package driver

import (
	"context"

	"github.com/skeletrack/skeletrack/pkg/types"
)

// Observer receives session events. Observers run on the polling goroutine,
// in registration order, and must not retain the frame or user past the
// call: the frame is refilled on the next read.
type Observer interface {
	// FrameRead is called once for every successfully read frame, including
	// frames without users.
	FrameRead(ctx context.Context, frame *types.Frame) error
	// UserAppeared is called after skeleton tracking was requested for a
	// user flagged new.
	UserAppeared(ctx context.Context, frame *types.Frame, user *types.User) error
	// SkeletonRead is called for every user not flagged new.
	SkeletonRead(ctx context.Context, frame *types.Frame, user *types.User) error
}

// FrameObserver adapts a function to an Observer that only consumes frames
type FrameObserver func(ctx context.Context, frame *types.Frame) error

func (f FrameObserver) FrameRead(ctx context.Context, frame *types.Frame) error {
	return f(ctx, frame)
}

func (FrameObserver) UserAppeared(context.Context, *types.Frame, *types.User) error { return nil }

func (FrameObserver) SkeletonRead(context.Context, *types.Frame, *types.User) error { return nil }
