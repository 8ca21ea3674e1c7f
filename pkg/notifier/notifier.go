// Package notifier sends desktop notifications about tracked users
package notifier

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/trace"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// DefaultMinInterval is the minimum gap between two notifications
const DefaultMinInterval = 5 * time.Second

// Config represents notification configuration
type Config struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Sound       bool          `mapstructure:"sound" yaml:"sound"`
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
}

// SendFunc delivers one notification
type SendFunc func(title, message string) error

// Option customizes a UserNotifier
type Option func(*UserNotifier)

// WithSender replaces the desktop notification backend
func WithSender(send SendFunc) Option {
	return func(n *UserNotifier) {
		n.send = send
	}
}

// WithClock replaces the time source used for rate limiting
func WithClock(now func() time.Time) Option {
	return func(n *UserNotifier) {
		n.now = now
	}
}

// UserNotifier notifies when users appear and when their skeleton is first
// tracked. Notifications closer together than MinInterval are dropped.
type UserNotifier struct {
	enabled     bool
	sound       bool
	minInterval time.Duration
	logger      logger.Logger
	send        SendFunc
	now         func() time.Time

	mu      sync.Mutex
	last    time.Time
	tracked map[types.UserID]bool
	sent    int
}

// New creates a user notifier
func New(config Config, log logger.Logger, opts ...Option) *UserNotifier {
	interval := config.MinInterval
	if interval <= 0 {
		interval = DefaultMinInterval
	}

	n := &UserNotifier{
		enabled:     config.Enabled,
		sound:       config.Sound,
		minInterval: interval,
		logger:      log.WithTarget("notifier"),
		send:        beeepSend,
		now:         time.Now,
		tracked:     make(map[types.UserID]bool),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func beeepSend(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Sent returns the number of notifications delivered
func (n *UserNotifier) Sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

// FrameRead implements the session observer; notifications are per user
func (n *UserNotifier) FrameRead(context.Context, *types.Frame) error {
	return nil
}

// UserAppeared notifies that a user entered the scene
func (n *UserNotifier) UserAppeared(ctx context.Context, _ *types.Frame, user *types.User) error {
	if !n.enabled {
		return nil
	}
	message := fmt.Sprintf("User %d appeared", user.ID)
	if uptime := trace.Uptime(ctx); uptime > 0 {
		message += fmt.Sprintf(" after %s", formatDuration(uptime))
	}
	n.notify("Skeletrack", message)
	return nil
}

// SkeletonRead notifies the first time a user's skeleton is tracked. A lost
// user is forgotten without a notification, so an id the engine reuses
// later is announced again.
func (n *UserNotifier) SkeletonRead(_ context.Context, _ *types.Frame, user *types.User) error {
	if user.IsLost() {
		n.mu.Lock()
		delete(n.tracked, user.ID)
		n.mu.Unlock()
		return nil
	}
	if !n.enabled || !user.Skeleton.IsTracked() {
		return nil
	}

	n.mu.Lock()
	seen := n.tracked[user.ID]
	n.tracked[user.ID] = true
	n.mu.Unlock()

	if !seen {
		n.notify("Skeletrack", fmt.Sprintf("Tracking user %d (%.0f mm tall)", user.ID, user.Skeleton.Height()))
	}
	return nil
}

func (n *UserNotifier) notify(title, message string) {
	n.mu.Lock()
	now := n.now()
	if !n.last.IsZero() && now.Sub(n.last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("Notification suppressed", logger.WithField("message", message))
		return
	}
	n.last = now
	n.sent++
	n.mu.Unlock()

	n.sendNotification(title, message)
}

func (n *UserNotifier) sendNotification(title, message string) {
	switch runtime.GOOS {
	case "darwin", "linux", "windows":
		if err := n.send(title, message); err != nil {
			n.logger.Debug("Failed to send notification", logger.WithField("error", err))
		}
		if n.sound {
			if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
				n.logger.Debug("Failed to play sound", logger.WithField("error", err))
			}
		}
	default:
		n.logger.Info(fmt.Sprintf("%s: %s", title, message))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
