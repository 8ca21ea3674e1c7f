// Package replay implements an engine that plays back a session recording.
// Frames are paced by their recorded timestamps and the recording loops
// from the start once it is exhausted.
package replay

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/recorder"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// MaxGap caps the pause between two replayed frames
const MaxGap = time.Second

// ErrEmptyRecording is returned when a recording holds no frames
var ErrEmptyRecording = errors.New("recording has no frames")

// Option customizes an Engine
type Option func(*Engine)

// WithSleep replaces the function used to pace frames
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// Engine replays a recording file
type Engine struct {
	path  string
	sleep func(time.Duration)

	mu     sync.Mutex
	header recorder.Header
	ready  bool
}

var _ nite.Engine = (*Engine)(nil)

// New creates a replay engine for the recording at path
func New(path string, opts ...Option) *Engine {
	e := &Engine{
		path:  path,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements nite.Engine
func (e *Engine) Name() string {
	return "replay"
}

// Header returns the header of the recording. It is only valid after
// Initialize.
func (e *Engine) Header() recorder.Header {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.header
}

// Initialize validates the recording
func (e *Engine) Initialize() error {
	r, err := recorder.Open(e.path)
	if err != nil {
		return &nite.StatusError{Op: "initialize", Status: nite.StatusFailed, Err: err}
	}
	defer r.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.header = r.Header()
	e.ready = true
	return nil
}

// CreateUserTracker implements nite.Engine
func (e *Engine) CreateUserTracker() (nite.UserTracker, error) {
	e.mu.Lock()
	ready := e.ready
	e.mu.Unlock()

	if !ready {
		return nil, &nite.StatusError{Op: "create user tracker", Status: nite.StatusOutOfFlow, Err: nite.ErrNotReady}
	}

	r, err := recorder.Open(e.path)
	if err != nil {
		return nil, &nite.StatusError{Op: "create user tracker", Status: nite.StatusFailed, Err: err}
	}
	return &tracker{
		path:   e.path,
		sleep:  e.sleep,
		reader: r,
		seen:   make(map[types.UserID]struct{}),
	}, nil
}

// Shutdown implements nite.Engine
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
}

type tracker struct {
	mu     sync.Mutex
	path   string
	sleep  func(time.Duration)
	reader *recorder.Reader

	last    uint64
	started bool
	rewind  bool
	seen    map[types.UserID]struct{}
}

func (t *tracker) reopen() error {
	if t.reader != nil {
		t.reader.Close()
		t.reader = nil
	}
	r, err := recorder.Open(t.path)
	if err != nil {
		return err
	}
	t.reader = r
	t.started = false
	t.rewind = false
	return nil
}

func (t *tracker) fail(err error) error {
	return &nite.StatusError{Op: "read frame", Status: nite.StatusFailed, Err: err}
}

func (t *tracker) ReadFrame(frame *types.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rewind || t.reader == nil {
		if t.seen == nil {
			return t.fail(nite.ErrTrackerClosed)
		}
		if err := t.reopen(); err != nil {
			return t.fail(err)
		}
	}

	err := t.reader.Next(frame)
	if errors.Is(err, io.EOF) {
		if !t.started {
			// Nothing to loop over; back off instead of spinning.
			t.sleep(MaxGap)
			t.rewind = true
			return t.fail(ErrEmptyRecording)
		}
		if err := t.reopen(); err != nil {
			return t.fail(err)
		}
		err = t.reader.Next(frame)
	}
	if err != nil {
		t.rewind = true
		return t.fail(fmt.Errorf("corrupt recording: %w", err))
	}

	if t.started && frame.Timestamp > t.last {
		gap := time.Duration(frame.Timestamp-t.last) * time.Microsecond
		if gap > MaxGap {
			gap = MaxGap
		}
		t.sleep(gap)
	}
	t.started = true
	t.last = frame.Timestamp

	for _, u := range frame.Users {
		t.seen[u.ID] = struct{}{}
	}
	return nil
}

func (t *tracker) StartSkeletonTracking(id types.UserID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen == nil {
		return &nite.StatusError{Op: "start skeleton tracking", Status: nite.StatusFailed, Err: nite.ErrTrackerClosed}
	}
	if _, ok := t.seen[id]; !ok {
		return &nite.StatusError{
			Op:     "start skeleton tracking",
			Status: nite.StatusBadUserID,
			Err:    fmt.Errorf("user %d not in recording", id),
		}
	}
	return nil
}

func (t *tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seen = nil
	if t.reader == nil {
		return nil
	}
	err := t.reader.Close()
	t.reader = nil
	return err
}
