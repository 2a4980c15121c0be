package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EulerOrder is the axis order of an euler rotation. Order "XYZ" rotates
// around X first, then Y, then Z (R = Rz * Ry * Rx).
type EulerOrder int

const (
	EulerXYZ EulerOrder = iota
	EulerXZY
	EulerYXZ
	EulerYZX
	EulerZXY
	EulerZYX
)

type eulerOrderInfo struct {
	name   string
	axis   [3]int
	parity bool
	// same rotation as mgl64.AnglesToQuat, which composes in reverse order
	mgl mgl64.RotationOrder
}

var eulerOrders = [...]eulerOrderInfo{
	EulerXYZ: {"XYZ", [3]int{0, 1, 2}, false, mgl64.ZYX},
	EulerXZY: {"XZY", [3]int{0, 2, 1}, true, mgl64.YZX},
	EulerYXZ: {"YXZ", [3]int{1, 0, 2}, true, mgl64.ZXY},
	EulerYZX: {"YZX", [3]int{1, 2, 0}, false, mgl64.XZY},
	EulerZXY: {"ZXY", [3]int{2, 0, 1}, false, mgl64.YXZ},
	EulerZYX: {"ZYX", [3]int{2, 1, 0}, true, mgl64.XYZ},
}

func (o EulerOrder) Valid() bool {
	return o >= EulerXYZ && o <= EulerZYX
}

func (o EulerOrder) String() string {
	if !o.Valid() {
		return "INVALID"
	}
	return eulerOrders[o].name
}

// ParseEulerOrder returns false for anything but the six tait-bryan orders
func ParseEulerOrder(s string) (EulerOrder, bool) {
	for i, info := range eulerOrders {
		if info.name == s {
			return EulerOrder(i), true
		}
	}
	return 0, false
}

// angles in radians
func EulerToQuat(e mgl64.Vec3, order EulerOrder) mgl64.Quat {
	info := eulerOrders[order]
	i, j, k := info.axis[0], info.axis[1], info.axis[2]
	return mgl64.AnglesToQuat(e[k], e[j], e[i], info.mgl).Normalize()
}

// QuatToEuler returns the euler angles (radians) of q in the given order
func QuatToEuler(q mgl64.Quat, order EulerOrder) mgl64.Vec3 {
	e, _ := mat3ToEulers(q.Normalize().Mat4().Mat3(), order)
	return e
}

// QuatToCompatibleEuler picks among equivalent euler triples the one closest
// to compat, so that keyframes interpolate without flips
func QuatToCompatibleEuler(q mgl64.Quat, order EulerOrder, compat mgl64.Vec3) mgl64.Vec3 {
	e1, e2 := mat3ToEulers(q.Normalize().Mat4().Mat3(), order)
	e1 = CompatibleEuler(e1, compat)
	e2 = CompatibleEuler(e2, compat)

	d1 := math.Abs(e1[0]-compat[0]) + math.Abs(e1[1]-compat[1]) + math.Abs(e1[2]-compat[2])
	d2 := math.Abs(e2[0]-compat[0]) + math.Abs(e2[1]-compat[1]) + math.Abs(e2[2]-compat[2])
	if d1 > d2 {
		return e2
	}
	return e1
}

// both solutions of a normalized rotation matrix, second one equals first in gimbal lock
func mat3ToEulers(m mgl64.Mat3, order EulerOrder) (e1, e2 mgl64.Vec3) {
	info := eulerOrders[order]
	i, j, k := info.axis[0], info.axis[1], info.axis[2]

	// column-major access: at(c, r)
	at := func(c, r int) float64 { return m.At(r, c) }

	cy := math.Hypot(at(i, i), at(i, j))
	if cy > 16*epsilon32 {
		e1[i] = math.Atan2(at(j, k), at(k, k))
		e1[j] = math.Atan2(-at(i, k), cy)
		e1[k] = math.Atan2(at(i, j), at(i, i))

		e2[i] = math.Atan2(-at(j, k), -at(k, k))
		e2[j] = math.Atan2(-at(i, k), -cy)
		e2[k] = math.Atan2(-at(i, j), -at(i, i))
	} else {
		e1[i] = math.Atan2(-at(k, j), at(j, j))
		e1[j] = math.Atan2(-at(i, k), cy)
		e1[k] = 0
		e2 = e1
	}

	if info.parity {
		e1 = e1.Mul(-1)
		e2 = e2.Mul(-1)
	}
	return e1, e2
}

const epsilon32 = 1.1920928955078125e-07

// CompatibleEuler shifts each angle of e by whole turns towards compat
func CompatibleEuler(e, compat mgl64.Vec3) mgl64.Vec3 {
	const piThresh = 5.1
	const pi2 = 2 * math.Pi

	var d mgl64.Vec3
	for i := range e {
		d[i] = e[i] - compat[i]
		if d[i] > piThresh {
			e[i] -= math.Floor(d[i]/pi2+0.5) * pi2
			d[i] = e[i] - compat[i]
		} else if d[i] < -piThresh {
			e[i] += math.Floor(-d[i]/pi2+0.5) * pi2
			d[i] = e[i] - compat[i]
		}
	}

	// a single axis more than half a turn away while the others are close
	for i := range e {
		j, k := (i+1)%3, (i+2)%3
		if math.Abs(d[i]) > 3.2 && math.Abs(d[j]) < 1.6 && math.Abs(d[k]) < 1.6 {
			if d[i] > 0 {
				e[i] -= pi2
			} else {
				e[i] += pi2
			}
		}
	}
	return e
}

// AxisAngleToQuat treats a zero axis as no rotation
func AxisAngleToQuat(angle float64, axis mgl64.Vec3) mgl64.Quat {
	l := axis.Len()
	if l < 1e-10 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, axis.Mul(1/l))
}

// QuatToAxisAngle returns angle in [0, 2pi] and unit axis, Y axis for identity
func QuatToAxisAngle(q mgl64.Quat) (angle float64, axis mgl64.Vec3) {
	q = q.Normalize()
	w := mgl64.Clamp(q.W, -1, 1)
	angle = 2 * math.Acos(w)

	s := math.Sqrt(1 - w*w)
	if s < 0.0005 {
		return angle, mgl64.Vec3{0, 1, 0}
	}
	return angle, q.V.Mul(1 / s)
}

// ComposeMat4 builds T * R * S
func ComposeMat4(loc mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(loc[0], loc[1], loc[2]).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

const (
	// shorter matrix axes are treated as zero scale
	zeroAxis = 1e-12
	// minimum volume spanned by the normalized axes
	dependentAxes = 1e-9
)

// DecomposeMat4 splits an affine matrix into translation, rotation and scale.
// Negative determinant is reported as negative scale on every axis. Axes of
// zero length get scale 0 and the rotation is completed from the remaining
// axes. ok is false for non finite values and for linearly dependent axes.
func DecomposeMat4(m mgl64.Mat4) (loc mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3, ok bool) {
	rot = mgl64.QuatIdent()
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return loc, rot, scale, false
		}
	}
	loc = m.Col(3).Vec3()

	cols := [3]mgl64.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	var valid []int
	for i, c := range cols {
		if l := c.Len(); l >= zeroAxis {
			scale[i] = l
			valid = append(valid, i)
		}
	}

	var axes [3]mgl64.Vec3
	switch len(valid) {
	case 0:
		return loc, rot, scale, true
	case 1:
		var e mgl64.Vec3
		e[valid[0]] = 1
		return loc, mgl64.QuatBetweenVectors(e, cols[valid[0]].Normalize()), scale, true
	case 2:
		i, j := valid[0], valid[1]
		k := 3 - i - j
		axes[i] = cols[i].Normalize()
		axes[j] = cols[j].Normalize()
		n := axes[(k+1)%3].Cross(axes[(k+2)%3])
		if n.Len() < dependentAxes {
			return loc, rot, scale, false
		}
		axes[k] = n.Normalize()
	default:
		if m.Mat3().Det() < 0 {
			scale = scale.Mul(-1)
		}
		for i, c := range cols {
			axes[i] = c.Mul(1 / scale[i])
		}
		if math.Abs(axes[0].Cross(axes[1]).Dot(axes[2])) < dependentAxes {
			return loc, mgl64.QuatIdent(), scale, false
		}
	}

	var r mgl64.Mat4
	for i, a := range axes {
		r.SetCol(i, a.Vec4(0))
	}
	r.SetCol(3, mgl64.Vec4{0, 0, 0, 1})

	return loc, mgl64.Mat4ToQuat(r).Normalize(), scale, true
}

// QuatAlign flips q to the hemisphere of ref, both represent the same rotation
func QuatAlign(q, ref mgl64.Quat) mgl64.Quat {
	if q.Dot(ref) < 0 {
		return q.Scale(-1)
	}
	return q
}

func RadiansToDegreeV3(v mgl64.Vec3) mgl64.Vec3 {
	return v.Mul(180.0 / math.Pi)
}

func DegreeToRadiansV3(v mgl64.Vec3) mgl64.Vec3 {
	return v.Mul(math.Pi / 180.0)
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func FloatArray64to32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
