//go:build nite

// Package native binds the NiTE2 C API. It is only built with -tags nite and
// needs the NiTE2 and OpenNI2 headers and libraries at link time.
package native

/*
#cgo CFLAGS: -I/usr/include/nite2 -I/usr/local/include/nite2
#cgo LDFLAGS: -L/usr/lib -L/usr/local/lib -lNiTE2
#include <NiteCAPI.h>
*/
import "C"

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/golang/geo/r3"

	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// ErrInUse is returned when another native engine is already initialized in
// this process.
var ErrInUse = errors.New("native NiTE engine already initialized in this process")

// NiTE keeps global state, so only one engine may own it at a time.
var initialized atomic.Bool

// Engine is the NiTE2 engine
type Engine struct {
	owner bool
}

var _ nite.Engine = (*Engine)(nil)

// New returns an uninitialized native engine
func New() *Engine {
	return &Engine{}
}

func status(op string, rc C.NiteStatus) error {
	return nite.Fail(op, nite.Status(int(rc)))
}

// Name implements nite.Engine
func (e *Engine) Name() string {
	return "nite"
}

// Initialize implements nite.Engine
func (e *Engine) Initialize() error {
	if !initialized.CompareAndSwap(false, true) {
		return &nite.StatusError{Op: "initialize", Status: nite.StatusFailed, Err: ErrInUse}
	}
	if err := status("initialize", C.niteInitialize()); err != nil {
		initialized.Store(false)
		return err
	}
	e.owner = true
	return nil
}

// CreateUserTracker implements nite.Engine. The tracker binds to the default
// device.
func (e *Engine) CreateUserTracker() (nite.UserTracker, error) {
	var handle C.NiteUserTrackerHandle
	if err := status("create user tracker", C.niteInitializeUserTracker(&handle)); err != nil {
		return nil, err
	}
	return &userTracker{handle: handle}, nil
}

// Shutdown implements nite.Engine
func (e *Engine) Shutdown() {
	if !e.owner {
		return
	}
	C.niteShutdown()
	e.owner = false
	initialized.Store(false)
}

type userTracker struct {
	mu     sync.Mutex
	handle C.NiteUserTrackerHandle
}

func (t *userTracker) ReadFrame(frame *types.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle == nil {
		return &nite.StatusError{Op: "read frame", Status: nite.StatusFailed, Err: nite.ErrTrackerClosed}
	}

	var raw *C.NiteUserTrackerFrame
	if err := status("read frame", C.niteReadUserTrackerFrame(t.handle, &raw)); err != nil {
		return err
	}
	defer C.niteUserTrackerFrameRelease(t.handle, raw)

	frame.Reset()
	frame.Index = int(raw.frameIndex)
	frame.Timestamp = uint64(raw.timestamp)

	if raw.userCount <= 0 || raw.pUser == nil {
		return nil
	}
	for _, u := range unsafe.Slice(raw.pUser, int(raw.userCount)) {
		frame.Users = append(frame.Users, convertUser(&u))
	}
	return nil
}

func (t *userTracker) StartSkeletonTracking(id types.UserID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle == nil {
		return &nite.StatusError{Op: "start skeleton tracking", Status: nite.StatusFailed, Err: nite.ErrTrackerClosed}
	}
	return status("start skeleton tracking", C.niteStartSkeletonTracking(t.handle, C.NiteUserId(id)))
}

func (t *userTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle == nil {
		return nil
	}
	err := status("shutdown user tracker", C.niteShutdownUserTracker(t.handle))
	t.handle = nil
	return err
}

func convertUser(u *C.NiteUserData) types.User {
	user := types.User{
		ID:           types.UserID(u.id),
		State:        types.UserState(u.state),
		CenterOfMass: point(u.centerOfMass),
	}
	user.Skeleton.State = types.SkeletonState(u.skeleton.state)
	for i := range user.Skeleton.Joints {
		j := &u.skeleton.joints[i]
		user.Skeleton.Joints[i] = types.Joint{
			Type:               types.JointType(j.jointType),
			Position:           point(j.position),
			PositionConfidence: float64(j.positionConfidence),
			Orientation: types.Quaternion{
				X: float64(j.orientation.x),
				Y: float64(j.orientation.y),
				Z: float64(j.orientation.z),
				W: float64(j.orientation.w),
			},
			OrientationConfidence: float64(j.orientationConfidence),
		}
	}
	return user
}

func point(p C.NitePoint3f) r3.Vector {
	return r3.Vector{X: float64(p.x), Y: float64(p.y), Z: float64(p.z)}
}
