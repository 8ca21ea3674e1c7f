// Package types provides the frame, user and skeleton data model shared by
// every tracking engine and consumer.
package types

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
)

// UserID identifies a tracked person. Ids are assigned by the engine and may
// be reused after the user is lost.
type UserID uint16

// UserState is a set of per-frame flags describing a user record
type UserState uint8

const (
	// UserVisible is set while the user is inside the field of view
	UserVisible UserState = 1 << iota
	// UserNew is set on the first frame the user is reported
	UserNew
	// UserLost is set on the last frame the user is reported
	UserLost
)

// String returns a pipe separated list of the set flags
func (s UserState) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	if s&UserVisible != 0 {
		parts = append(parts, "visible")
	}
	if s&UserNew != 0 {
		parts = append(parts, "new")
	}
	if s&UserLost != 0 {
		parts = append(parts, "lost")
	}
	return strings.Join(parts, "|")
}

// SkeletonState represents the tracking status of a user's skeleton
type SkeletonState uint8

const (
	SkeletonNone SkeletonState = iota
	SkeletonCalibrating
	SkeletonTracked
	SkeletonErrorNotInPose
	SkeletonErrorHands
	SkeletonErrorHead
	SkeletonErrorLegs
	SkeletonErrorTorso
)

var skeletonStateNames = [...]string{
	SkeletonNone:           "none",
	SkeletonCalibrating:    "calibrating",
	SkeletonTracked:        "tracked",
	SkeletonErrorNotInPose: "error-not-in-pose",
	SkeletonErrorHands:     "error-hands",
	SkeletonErrorHead:      "error-head",
	SkeletonErrorLegs:      "error-legs",
	SkeletonErrorTorso:     "error-torso",
}

func (s SkeletonState) String() string {
	if int(s) < len(skeletonStateNames) {
		return skeletonStateNames[s]
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// JointType names one of the fifteen skeleton joints
type JointType uint8

const (
	JointHead JointType = iota
	JointNeck
	JointLeftShoulder
	JointRightShoulder
	JointLeftElbow
	JointRightElbow
	JointLeftHand
	JointRightHand
	JointTorso
	JointLeftHip
	JointRightHip
	JointLeftKnee
	JointRightKnee
	JointLeftFoot
	JointRightFoot

	// JointCount is the number of joints in a skeleton
	JointCount = int(JointRightFoot) + 1
)

var jointNames = [JointCount]string{
	"head", "neck",
	"left-shoulder", "right-shoulder",
	"left-elbow", "right-elbow",
	"left-hand", "right-hand",
	"torso",
	"left-hip", "right-hip",
	"left-knee", "right-knee",
	"left-foot", "right-foot",
}

func (j JointType) String() string {
	if int(j) < JointCount {
		return jointNames[j]
	}
	return fmt.Sprintf("joint(%d)", uint8(j))
}

// Quaternion is a joint orientation
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuaternion is the orientation with no rotation
var IdentityQuaternion = Quaternion{W: 1}

// Joint is one skeleton joint. Positions are in millimetres in the sensor's
// real-world coordinate system.
type Joint struct {
	Type                  JointType  `json:"type"`
	Position              r3.Vector  `json:"position"`
	PositionConfidence    float64    `json:"positionConfidence"`
	Orientation           Quaternion `json:"orientation"`
	OrientationConfidence float64    `json:"orientationConfidence"`
}

// Skeleton is a snapshot of a user's joints
type Skeleton struct {
	State  SkeletonState     `json:"state"`
	Joints [JointCount]Joint `json:"joints"`
}

// Joint returns the joint of the given type
func (s *Skeleton) Joint(t JointType) Joint {
	return s.Joints[t]
}

// IsTracked reports whether the joint data is meaningful
func (s *Skeleton) IsTracked() bool {
	return s.State == SkeletonTracked
}

// String renders the skeleton on a single line. Untracked skeletons only
// report their state.
func (s Skeleton) String() string {
	if !s.IsTracked() {
		return fmt.Sprintf("<skeleton %s>", s.State)
	}
	head := s.Joints[JointHead].Position
	torso := s.Joints[JointTorso].Position
	return fmt.Sprintf("<skeleton %s head=(%.0f, %.0f, %.0f) torso=(%.0f, %.0f, %.0f) confidence=%.2f>",
		s.State,
		head.X, head.Y, head.Z,
		torso.X, torso.Y, torso.Z,
		s.Confidence(),
	)
}

// Confidence is the mean position confidence over all joints
func (s *Skeleton) Confidence() float64 {
	var sum float64
	for _, j := range s.Joints {
		sum += j.PositionConfidence
	}
	return sum / float64(JointCount)
}

// Height is the vertical distance from the lowest foot to the head
func (s *Skeleton) Height() float64 {
	head := s.Joints[JointHead].Position.Y
	foot := s.Joints[JointLeftFoot].Position.Y
	if right := s.Joints[JointRightFoot].Position.Y; right < foot {
		foot = right
	}
	return head - foot
}

// User is one tracked person in a frame
type User struct {
	ID           UserID    `json:"id"`
	State        UserState `json:"state"`
	CenterOfMass r3.Vector `json:"centerOfMass"`
	Skeleton     Skeleton  `json:"skeleton"`
}

// IsNew reports whether this is the user's first frame
func (u *User) IsNew() bool {
	return u.State&UserNew != 0
}

// IsVisible reports whether the user is inside the field of view
func (u *User) IsVisible() bool {
	return u.State&UserVisible != 0
}

// IsLost reports whether this is the user's last frame
func (u *User) IsLost() bool {
	return u.State&UserLost != 0
}

// Frame is one sampled instant. A Frame is meant to be reused across reads:
// engines reset Users and refill it in place.
type Frame struct {
	Index     int    `json:"index"`
	Timestamp uint64 `json:"timestamp"` // microseconds
	Users     []User `json:"users"`
}

// Reset clears the frame while keeping the user slice capacity
func (f *Frame) Reset() {
	f.Index = 0
	f.Timestamp = 0
	f.Users = f.Users[:0]
}

// User returns the user with the given id, if present
func (f *Frame) User(id UserID) (*User, bool) {
	for i := range f.Users {
		if f.Users[i].ID == id {
			return &f.Users[i], true
		}
	}
	return nil, false
}

// CopyTo copies the frame into dst, reusing dst's user slice
func (f *Frame) CopyTo(dst *Frame) {
	dst.Index = f.Index
	dst.Timestamp = f.Timestamp
	dst.Users = append(dst.Users[:0], f.Users...)
}
