// Package simulator implements a deterministic synthetic tracking engine.
//
// Users walk across the floor in front of a virtual sensor. Each user is
// flagged new on its first frame and lost on its last one, after which its
// slot is refilled with a user carrying a fresh id. Skeletons stay untracked
// until StartSkeletonTracking, calibrate for half a second and are then
// tracked with joints placed around the centre of mass.
package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/types"
)

// Defaults used when a Config field is zero
const (
	DefaultUsers = 2
	DefaultFPS   = 30
)

// Config controls the synthetic scene
type Config struct {
	Users int   `mapstructure:"users" yaml:"users"`
	FPS   int   `mapstructure:"fps" yaml:"fps"`
	Seed  int64 `mapstructure:"seed" yaml:"seed"`
}

func (c Config) withDefaults() Config {
	if c.Users <= 0 {
		c.Users = DefaultUsers
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	return c
}

// Option customizes an Engine
type Option func(*Engine)

// WithSleep replaces the function used to pace frames. Tests pass a no-op.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// Engine is the synthetic engine
type Engine struct {
	cfg   Config
	sleep func(time.Duration)

	mu          sync.Mutex
	initialized bool
}

var _ nite.Engine = (*Engine)(nil)

// New creates a simulator
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg.withDefaults(),
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Name implements nite.Engine
func (e *Engine) Name() string {
	return "simulator"
}

// Initialize implements nite.Engine
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = true
	return nil
}

// CreateUserTracker implements nite.Engine. Every tracker replays the same
// scene for a given seed.
func (e *Engine) CreateUserTracker() (nite.UserTracker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, &nite.StatusError{Op: "create user tracker", Status: nite.StatusOutOfFlow, Err: nite.ErrNotReady}
	}
	return newScene(e.cfg, e.sleep), nil
}

// Shutdown implements nite.Engine
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
}

type actor struct {
	id       types.UserID
	age      int
	lifetime int
	position r3.Vector
	velocity r3.Vector // mm per frame
	height   float64

	tracking bool
	trackAge int
}

type scene struct {
	mu sync.Mutex

	rng         *rand.Rand
	period      time.Duration
	calibration int
	sleep       func(time.Duration)

	index  int
	nextID types.UserID
	slots  []*actor
	closed bool
}

func newScene(cfg Config, sleep func(time.Duration)) *scene {
	return &scene{
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		period:      time.Second / time.Duration(cfg.FPS),
		calibration: cfg.FPS / 2,
		sleep:       sleep,
		nextID:      1,
		slots:       make([]*actor, cfg.Users),
	}
}

func (s *scene) spawn() *actor {
	id := s.nextID
	s.nextID++
	if s.nextID == 0 {
		s.nextID = 1
	}

	fps := int(time.Second / s.period)
	angle := s.rng.Float64() * 2 * math.Pi
	speed := 5 + s.rng.Float64()*15

	return &actor{
		id:       id,
		lifetime: 4*fps + s.rng.Intn(8*fps),
		position: r3.Vector{
			X: -1500 + s.rng.Float64()*3000,
			Y: 0,
			Z: 1500 + s.rng.Float64()*2500,
		},
		velocity: r3.Vector{X: math.Cos(angle) * speed, Z: math.Sin(angle) * speed},
		height:   1550 + s.rng.Float64()*400,
	}
}

// step advances an actor by one frame, bouncing off the edges of the
// field of view.
func (a *actor) step() {
	a.position = a.position.Add(a.velocity)
	if a.position.X < -2000 || a.position.X > 2000 {
		a.velocity.X = -a.velocity.X
	}
	if a.position.Z < 1000 || a.position.Z > 4500 {
		a.velocity.Z = -a.velocity.Z
	}
	a.age++
	if a.tracking {
		a.trackAge++
	}
}

func (s *scene) ReadFrame(frame *types.Frame) error {
	s.sleep(s.period)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &nite.StatusError{Op: "read frame", Status: nite.StatusFailed, Err: nite.ErrTrackerClosed}
	}

	s.index++
	frame.Reset()
	frame.Index = s.index
	frame.Timestamp = uint64(s.index) * uint64(s.period/time.Microsecond)

	for i, a := range s.slots {
		if a == nil {
			a = s.spawn()
			s.slots[i] = a
		} else {
			a.step()
		}
		frame.Users = append(frame.Users, s.user(a))
		if a.age >= a.lifetime-1 {
			s.slots[i] = nil
		}
	}
	return nil
}

func (s *scene) user(a *actor) types.User {
	u := types.User{
		ID:           a.id,
		State:        types.UserVisible,
		CenterOfMass: a.position.Add(r3.Vector{Y: a.height * 0.55}),
	}
	switch {
	case a.age == 0:
		u.State |= types.UserNew
	case a.age >= a.lifetime-1:
		u.State = types.UserLost
	}

	switch {
	case !a.tracking:
		u.Skeleton.State = types.SkeletonNone
	case a.trackAge < s.calibration:
		u.Skeleton.State = types.SkeletonCalibrating
	default:
		u.Skeleton = pose(a, u.CenterOfMass)
	}
	return u
}

// jointOffsets places joints relative to the torso, as fractions of body
// height.
var jointOffsets = [types.JointCount]r3.Vector{
	types.JointHead:          {X: 0, Y: 0.36, Z: 0},
	types.JointNeck:          {X: 0, Y: 0.27, Z: 0},
	types.JointLeftShoulder:  {X: -0.11, Y: 0.24, Z: 0},
	types.JointRightShoulder: {X: 0.11, Y: 0.24, Z: 0},
	types.JointLeftElbow:     {X: -0.14, Y: 0.08, Z: 0},
	types.JointRightElbow:    {X: 0.14, Y: 0.08, Z: 0},
	types.JointLeftHand:      {X: -0.15, Y: -0.06, Z: -0.03},
	types.JointRightHand:     {X: 0.15, Y: -0.06, Z: -0.03},
	types.JointTorso:         {X: 0, Y: 0, Z: 0},
	types.JointLeftHip:       {X: -0.06, Y: -0.09, Z: 0},
	types.JointRightHip:      {X: 0.06, Y: -0.09, Z: 0},
	types.JointLeftKnee:      {X: -0.06, Y: -0.32, Z: 0},
	types.JointRightKnee:     {X: 0.06, Y: -0.32, Z: 0},
	types.JointLeftFoot:      {X: -0.06, Y: -0.55, Z: 0},
	types.JointRightFoot:     {X: 0.06, Y: -0.55, Z: 0},
}

func pose(a *actor, torso r3.Vector) types.Skeleton {
	sk := types.Skeleton{State: types.SkeletonTracked}
	swing := math.Sin(float64(a.age) / 6)

	for i, off := range jointOffsets {
		jt := types.JointType(i)
		p := torso.Add(off.Mul(a.height))
		switch jt {
		case types.JointLeftHand, types.JointRightKnee, types.JointRightFoot:
			p.Z += swing * 120
		case types.JointRightHand, types.JointLeftKnee, types.JointLeftFoot:
			p.Z -= swing * 120
		}
		sk.Joints[i] = types.Joint{
			Type:                  jt,
			Position:              p,
			PositionConfidence:    1,
			Orientation:           types.IdentityQuaternion,
			OrientationConfidence: 1,
		}
	}
	return sk
}

func (s *scene) StartSkeletonTracking(id types.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &nite.StatusError{Op: "start skeleton tracking", Status: nite.StatusFailed, Err: nite.ErrTrackerClosed}
	}
	for _, a := range s.slots {
		if a != nil && a.id == id {
			if !a.tracking {
				a.tracking = true
				a.trackAge = 0
			}
			return nil
		}
	}
	return &nite.StatusError{
		Op:     "start skeleton tracking",
		Status: nite.StatusBadUserID,
		Err:    fmt.Errorf("no user with id %d", id),
	}
}

func (s *scene) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
