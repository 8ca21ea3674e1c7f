package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/types"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestNotifier(config Config) (*UserNotifier, *[]string, *fakeClock) {
	var messages []string
	clock := &fakeClock{now: time.Unix(1000, 0)}
	n := New(config, logger.Discard(),
		WithSender(func(title, message string) error {
			messages = append(messages, message)
			return nil
		}),
		WithClock(clock.Now),
	)
	return n, &messages, clock
}

func TestNotifier_UserAppeared(t *testing.T) {
	n, messages, _ := newTestNotifier(Config{Enabled: true})

	user := &types.User{ID: 4, State: types.UserNew}
	if err := n.UserAppeared(context.Background(), &types.Frame{}, user); err != nil {
		t.Fatalf("UserAppeared failed: %v", err)
	}

	if n.Sent() != 1 {
		t.Fatalf("expected 1 notification, got %d", n.Sent())
	}
	if (*messages)[0] != "User 4 appeared" {
		t.Errorf("unexpected message %q", (*messages)[0])
	}
}

func TestNotifier_Disabled(t *testing.T) {
	n, messages, _ := newTestNotifier(Config{Enabled: false})

	user := &types.User{ID: 1, State: types.UserNew}
	_ = n.UserAppeared(context.Background(), &types.Frame{}, user)
	user.Skeleton.State = types.SkeletonTracked
	_ = n.SkeletonRead(context.Background(), &types.Frame{}, user)

	if len(*messages) != 0 {
		t.Errorf("expected no notifications when disabled, got %v", *messages)
	}
}

func TestNotifier_RateLimit(t *testing.T) {
	n, messages, clock := newTestNotifier(Config{Enabled: true, MinInterval: 10 * time.Second})
	ctx := context.Background()

	_ = n.UserAppeared(ctx, &types.Frame{}, &types.User{ID: 1})
	clock.now = clock.now.Add(3 * time.Second)
	_ = n.UserAppeared(ctx, &types.Frame{}, &types.User{ID: 2})
	clock.now = clock.now.Add(10 * time.Second)
	_ = n.UserAppeared(ctx, &types.Frame{}, &types.User{ID: 3})

	want := []string{"User 1 appeared", "User 3 appeared"}
	if len(*messages) != len(want) {
		t.Fatalf("expected %v, got %v", want, *messages)
	}
	for i := range want {
		if (*messages)[i] != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], (*messages)[i])
		}
	}
}

func TestNotifier_TrackedOncePerUser(t *testing.T) {
	n, messages, clock := newTestNotifier(Config{Enabled: true, MinInterval: time.Millisecond})
	ctx := context.Background()

	user := types.User{ID: 5, State: types.UserVisible}
	_ = n.SkeletonRead(ctx, &types.Frame{}, &user)
	if len(*messages) != 0 {
		t.Fatal("untracked skeleton must not notify")
	}

	user.Skeleton.State = types.SkeletonTracked
	for i := 0; i < 3; i++ {
		clock.now = clock.now.Add(time.Second)
		_ = n.SkeletonRead(ctx, &types.Frame{}, &user)
	}
	if len(*messages) != 1 {
		t.Fatalf("expected one tracking notification, got %v", *messages)
	}

	// A lost user may come back with the same id.
	lost := user
	lost.State = types.UserLost
	_ = n.SkeletonRead(ctx, &types.Frame{}, &lost)
	clock.now = clock.now.Add(time.Second)
	_ = n.SkeletonRead(ctx, &types.Frame{}, &user)
	if len(*messages) != 2 {
		t.Errorf("expected notification after user was lost, got %v", *messages)
	}
}

func TestNotifier_LostFrameDoesNotNotify(t *testing.T) {
	n, messages, clock := newTestNotifier(Config{Enabled: true, MinInterval: time.Millisecond})
	ctx := context.Background()

	user := types.User{ID: 4, State: types.UserVisible}
	user.Skeleton.State = types.SkeletonTracked
	lost := user
	lost.State = types.UserVisible | types.UserLost

	// Same order as a session: the frame first, then each user in it.
	read := func(u types.User) {
		clock.now = clock.now.Add(time.Second)
		frame := &types.Frame{Users: []types.User{u}}
		_ = n.FrameRead(ctx, frame)
		_ = n.SkeletonRead(ctx, frame, &frame.Users[0])
	}

	read(user)
	read(lost)
	if len(*messages) != 1 {
		t.Fatalf("expected only the first tracking notification, got %v", *messages)
	}

	read(user)
	if len(*messages) != 2 {
		t.Errorf("expected a reused id to be announced again, got %v", *messages)
	}
}
