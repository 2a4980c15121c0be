package host

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/utils"
)

// RotationMode selects how an object stores its rotation channels
type RotationMode int

const (
	RotationInvalid RotationMode = iota
	RotationQuaternion
	RotationAxisAngle
	RotationEulerXYZ
	RotationEulerXZY
	RotationEulerYXZ
	RotationEulerYZX
	RotationEulerZXY
	RotationEulerZYX
)

// rotationCodec converts the channel values of one mode from and to the
// canonical quaternion. fromQuat gets the previous values of the same
// channels (or nil) to keep results continuous.
type rotationCodec struct {
	name     string
	path     DataPath
	size     int
	toQuat   func(v []float64) mgl64.Quat
	fromQuat func(q mgl64.Quat, prev []float64) []float64
}

var rotationCodecs = map[RotationMode]rotationCodec{
	RotationQuaternion: {
		name: "QUATERNION",
		path: PathRotationQuaternion,
		size: 4,
		toQuat: func(v []float64) mgl64.Quat {
			// stored as w, x, y, z
			return mgl64.Quat{W: v[0], V: mgl64.Vec3{v[1], v[2], v[3]}}.Normalize()
		},
		fromQuat: func(q mgl64.Quat, prev []float64) []float64 {
			if prev != nil {
				q = utils.QuatAlign(q, mgl64.Quat{W: prev[0], V: mgl64.Vec3{prev[1], prev[2], prev[3]}})
			}
			return []float64{q.W, q.V[0], q.V[1], q.V[2]}
		},
	},
	RotationAxisAngle: {
		name: "AXIS_ANGLE",
		path: PathRotationAxisAngle,
		size: 4,
		toQuat: func(v []float64) mgl64.Quat {
			// angle first
			return utils.AxisAngleToQuat(v[0], mgl64.Vec3{v[1], v[2], v[3]})
		},
		fromQuat: func(q mgl64.Quat, prev []float64) []float64 {
			if prev != nil {
				q = utils.QuatAlign(q, utils.AxisAngleToQuat(prev[0], mgl64.Vec3{prev[1], prev[2], prev[3]}))
			}
			angle, axis := utils.QuatToAxisAngle(q)
			return []float64{angle, axis[0], axis[1], axis[2]}
		},
	},
	RotationEulerXYZ: eulerCodec(utils.EulerXYZ),
	RotationEulerXZY: eulerCodec(utils.EulerXZY),
	RotationEulerYXZ: eulerCodec(utils.EulerYXZ),
	RotationEulerYZX: eulerCodec(utils.EulerYZX),
	RotationEulerZXY: eulerCodec(utils.EulerZXY),
	RotationEulerZYX: eulerCodec(utils.EulerZYX),
}

func eulerCodec(order utils.EulerOrder) rotationCodec {
	return rotationCodec{
		name: order.String(),
		path: PathRotationEuler,
		size: 3,
		toQuat: func(v []float64) mgl64.Quat {
			return utils.EulerToQuat(mgl64.Vec3{v[0], v[1], v[2]}, order)
		},
		fromQuat: func(q mgl64.Quat, prev []float64) []float64 {
			var e mgl64.Vec3
			if prev != nil {
				e = utils.QuatToCompatibleEuler(q, order, mgl64.Vec3{prev[0], prev[1], prev[2]})
			} else {
				e = utils.QuatToEuler(q, order)
			}
			return e[:]
		},
	}
}

func (m RotationMode) codec() (rotationCodec, error) {
	c, ok := rotationCodecs[m]
	if !ok {
		return c, errors.Wrapf(ErrUnsupportedRotationMode, "mode %d", int(m))
	}
	return c, nil
}

func (m RotationMode) Valid() bool {
	_, ok := rotationCodecs[m]
	return ok
}

func (m RotationMode) String() string {
	if c, ok := rotationCodecs[m]; ok {
		return c.name
	}
	return "INVALID"
}

func (m RotationMode) IsEuler() bool {
	return m >= RotationEulerXYZ && m <= RotationEulerZYX
}

// EulerOrder is only meaningful for euler modes
func (m RotationMode) EulerOrder() utils.EulerOrder {
	return utils.EulerOrder(m - RotationEulerXYZ)
}

// DataPath of the channels holding rotation in this mode
func (m RotationMode) DataPath() DataPath {
	return rotationCodecs[m].path
}

// Size is the amount of rotation channels, 3 for euler and 4 otherwise
func (m RotationMode) Size() int {
	return rotationCodecs[m].size
}

func (m RotationMode) ToQuat(values []float64) (mgl64.Quat, error) {
	c, err := m.codec()
	if err != nil {
		return mgl64.QuatIdent(), err
	}
	if len(values) != c.size {
		return mgl64.QuatIdent(), errors.Errorf("%v rotation needs %d values, got %d", m, c.size, len(values))
	}
	return c.toQuat(values), nil
}

// FromQuat converts q into channel values of the mode. When prev is not nil
// the result is the representation closest to prev.
func (m RotationMode) FromQuat(q mgl64.Quat, prev []float64) ([]float64, error) {
	c, err := m.codec()
	if err != nil {
		return nil, err
	}
	if prev != nil && len(prev) != c.size {
		prev = nil
	}
	return c.fromQuat(q, prev), nil
}

func ParseRotationMode(s string) (RotationMode, error) {
	for m, c := range rotationCodecs {
		if c.name == s {
			return m, nil
		}
	}
	return RotationInvalid, errors.Wrapf(ErrUnsupportedRotationMode, "%q", s)
}

// RotationModeForPath returns the default mode storing its rotation in path
func RotationModeForPath(path DataPath) (RotationMode, bool) {
	switch path {
	case PathRotationQuaternion:
		return RotationQuaternion, true
	case PathRotationAxisAngle:
		return RotationAxisAngle, true
	case PathRotationEuler:
		return RotationEulerXYZ, true
	}
	return RotationInvalid, false
}
