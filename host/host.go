// Package host describes the surface of the 3d application that the parent
// tools operate on. The tools never own scene data; they read and write it
// through these interfaces, which the scene package implements in memory.
package host

import "github.com/go-gl/mathgl/mgl64"

// DataPath names an animatable vector property of an object
type DataPath string

const (
	PathLocation           DataPath = "location"
	PathRotationEuler      DataPath = "rotation_euler"
	PathRotationQuaternion DataPath = "rotation_quaternion"
	PathRotationAxisAngle  DataPath = "rotation_axis_angle"
	PathScale              DataPath = "scale"
)

// Size is the amount of channels of the property, 0 for unknown paths
func (p DataPath) Size() int {
	switch p {
	case PathLocation, PathScale, PathRotationEuler:
		return 3
	case PathRotationQuaternion, PathRotationAxisAngle:
		return 4
	}
	return 0
}

type Object interface {
	Name() string
	// Parent is nil for root objects
	Parent() Object
	RotationMode() RotationMode

	// MatrixBasis is the local transform built from location, rotation and scale
	MatrixBasis() mgl64.Mat4
	// SetMatrixBasis decomposes m into the transform channels of the object.
	// Zero length axes become zero scale. Returns ErrSingularMatrix when the
	// axes of m are linearly dependent otherwise.
	SetMatrixBasis(m mgl64.Mat4) error

	MatrixParentInverse() mgl64.Mat4
	SetMatrixParentInverse(m mgl64.Mat4)

	// MatrixWorld is Parent.MatrixWorld * MatrixParentInverse * MatrixBasis
	MatrixWorld() mgl64.Mat4

	// Property returns the current values of a transform property
	Property(path DataPath) ([]float64, error)

	// Action is nil when the object is not animated
	Action() Action
	Drivers() []Driver
}

type Action interface {
	// FCurve is nil when the channel is not animated
	FCurve(path DataPath, index int) FCurve
}

// FrameThreshold is the distance below which two keyframe frames are the
// same frame. InsertReplace finds existing keyframes with it.
const FrameThreshold = 0.01

type Keyframe struct {
	Frame float64
	Value float64
}

// InsertFlag controls keyframe insertion
type InsertFlag uint8

const (
	// InsertReplace overwrites the value of a keyframe on the same frame
	// instead of adding another one
	InsertReplace InsertFlag = 1 << iota
	// InsertFast skips handle recalculation of the neighbours
	InsertFast
)

type FCurve interface {
	DataPath() DataPath
	Index() int
	// Keyframes ordered by frame
	Keyframes() []Keyframe
	Evaluate(frame float64) float64
	InsertKeyframe(frame, value float64, flags InsertFlag)
}

type Driver interface {
	DataPath() string
	Index() int
	Variables() []DriverVariable
}

type DriverVariable interface {
	Name() string
	Targets() []DriverTarget
}

type DriverTarget interface {
	ID() Object
	SetID(o Object)
}

// Selection is what the operators run on
type Selection interface {
	SelectedObjects() []Object
	// ActiveObject is nil when nothing is active
	ActiveObject() Object
}
