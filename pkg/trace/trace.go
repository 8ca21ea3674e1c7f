// Package trace carries session-scoped identifiers through a context so
// that log lines from one tracking session can be correlated.
package trace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	engineKey
	frameKey
	startTimeKey
)

// WithSessionID adds a session ID to the context, generating one if empty
func WithSessionID(parent context.Context, sessionID string) context.Context {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return context.WithValue(parent, sessionIDKey, sessionID)
}

// SessionID retrieves the session ID from context
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithEngine records the engine name driving the session
func WithEngine(parent context.Context, engine string) context.Context {
	return context.WithValue(parent, engineKey, engine)
}

// Engine retrieves the engine name from context
func Engine(ctx context.Context) string {
	if name, ok := ctx.Value(engineKey).(string); ok {
		return name
	}
	return ""
}

// WithFrame records the index of the frame being processed
func WithFrame(parent context.Context, index int) context.Context {
	return context.WithValue(parent, frameKey, index)
}

// Frame retrieves the frame index from context
func Frame(ctx context.Context) (int, bool) {
	index, ok := ctx.Value(frameKey).(int)
	return index, ok
}

// WithStartTime records when the session started
func WithStartTime(parent context.Context, startTime time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, startTime)
}

// Uptime is the time elapsed since the recorded start time, or zero
func Uptime(ctx context.Context) time.Duration {
	if t, ok := ctx.Value(startTimeKey).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}

// NewSessionID creates a new unique session ID
func NewSessionID() string {
	return "ses_" + uuid.New().String()
}

// NewSession returns a context carrying a fresh session ID, the engine name
// and the current time.
func NewSession(parent context.Context, engine string) context.Context {
	ctx := WithSessionID(parent, "")
	ctx = WithEngine(ctx, engine)
	return WithStartTime(ctx, time.Now())
}

// Fields returns the tracing values present in ctx as a flat map
func Fields(ctx context.Context) map[string]interface{} {
	fields := make(map[string]interface{})
	if id := SessionID(ctx); id != "" {
		fields["session"] = id
	}
	if name := Engine(ctx); name != "" {
		fields["engine"] = name
	}
	if index, ok := Frame(ctx); ok {
		fields["frame"] = index
	}
	return fields
}
