package utils

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

func axisRotation(axis int, a float64) mgl64.Mat4 {
	switch axis {
	case 0:
		return mgl64.HomogRotate3DX(a)
	case 1:
		return mgl64.HomogRotate3DY(a)
	default:
		return mgl64.HomogRotate3DZ(a)
	}
}

// reference matrix built axis by axis, first axis of the order applied first
func eulerMatrix(e mgl64.Vec3, order EulerOrder) mgl64.Mat4 {
	axis := eulerOrders[order].axis
	return axisRotation(axis[2], e[axis[2]]).
		Mul4(axisRotation(axis[1], e[axis[1]])).
		Mul4(axisRotation(axis[0], e[axis[0]]))
}

var sampleAngles = []float64{0, math.Pi / 6, math.Pi / 2, -math.Pi / 2, 2.5, math.Pi, -math.Pi + 1e-3}

func TestEulerToQuatMatchesAxisOrder(t *testing.T) {
	for order := EulerXYZ; order <= EulerZYX; order++ {
		for _, a := range sampleAngles {
			e := mgl64.Vec3{a, 0.3 - a/2, 1.1 * a}
			got := EulerToQuat(e, order).Mat4()
			want := eulerMatrix(e, order)
			if !got.ApproxEqualThreshold(want, eps) {
				t.Errorf("EulerToQuat(%v,%v) matrix %v; expected %v", e, order, got, want)
			}
		}
	}
}

func TestEulerRoundTrip(t *testing.T) {
	for order := EulerXYZ; order <= EulerZYX; order++ {
		middle := eulerOrders[order].axis[1]
		for _, a := range sampleAngles {
			for _, b := range sampleAngles {
				e := mgl64.Vec3{a, b, -a}
				// gimbal lock on the middle axis
				if b == math.Pi/2 || b == -math.Pi/2 {
					e[middle] = b
				}
				m := eulerMatrix(e, order)
				back := QuatToEuler(mgl64.Mat4ToQuat(m), order)
				if got := eulerMatrix(back, order); !got.ApproxEqualThreshold(m, 1e-7) {
					t.Errorf("order %v: %v -> %v gives %v; expected %v", order, e, back, got, m)
				}
			}
		}
	}
}

func TestQuatToCompatibleEuler(t *testing.T) {
	prev := mgl64.Vec3{0, 0, 3.0}
	// 200 degrees around Z is -160 degrees canonically, compat keeps it near prev
	q := EulerToQuat(mgl64.Vec3{0, 0, 200 * math.Pi / 180}, EulerXYZ)
	e := QuatToCompatibleEuler(q, EulerXYZ, prev)
	if math.Abs(e[2]-200*math.Pi/180) > 1e-7 || math.Abs(e[0]) > 1e-7 || math.Abs(e[1]) > 1e-7 {
		t.Errorf("QuatToCompatibleEuler=%v; expected z=%v", e, 200*math.Pi/180)
	}
	if !EulerToQuat(e, EulerXYZ).OrientationEqualThreshold(q, 1e-7) {
		t.Errorf("compatible euler %v changes orientation", e)
	}
}

func TestAxisAngleRoundTrip(t *testing.T) {
	axes := []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, mgl64.Vec3{1, 2, 3}.Normalize()}
	for _, axis := range axes {
		for _, a := range []float64{0, 0.5, math.Pi / 2, math.Pi, 4} {
			q := AxisAngleToQuat(a, axis)
			angle, back := QuatToAxisAngle(q)
			if got := AxisAngleToQuat(angle, back); !got.OrientationEqualThreshold(q, 1e-7) {
				t.Errorf("axis %v angle %v -> (%v, %v)", axis, a, angle, back)
			}
		}
	}

	if angle, axis := QuatToAxisAngle(mgl64.QuatIdent()); angle != 0 || axis != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("identity axis angle = %v %v", angle, axis)
	}
	if q := AxisAngleToQuat(1, mgl64.Vec3{}); q != mgl64.QuatIdent() {
		t.Errorf("zero axis gives %v", q)
	}
}

func TestComposeDecompose(t *testing.T) {
	loc := mgl64.Vec3{1, -2, 3}
	rot := EulerToQuat(mgl64.Vec3{0.3, -1.2, 2.0}, EulerYZX)
	scale := mgl64.Vec3{2, 0.5, 1.5}

	m := ComposeMat4(loc, rot, scale)
	l, r, s, ok := DecomposeMat4(m)
	if !ok {
		t.Fatal("DecomposeMat4 failed")
	}
	if !l.ApproxEqualThreshold(loc, eps) || !s.ApproxEqualThreshold(scale, eps) || !r.OrientationEqualThreshold(rot, eps) {
		t.Errorf("DecomposeMat4 = %v %v %v; expected %v %v %v", l, r, s, loc, rot, scale)
	}
	if back := ComposeMat4(l, r, s); !back.ApproxEqualThreshold(m, eps) {
		t.Errorf("recompose %v; expected %v", back, m)
	}
}

func TestDecomposeNegativeAndSingular(t *testing.T) {
	m := ComposeMat4(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{-1, 1, 1})
	l, r, s, ok := DecomposeMat4(m)
	if !ok {
		t.Fatal("DecomposeMat4 failed on mirrored matrix")
	}
	if back := ComposeMat4(l, r, s); !back.ApproxEqualThreshold(m, eps) {
		t.Errorf("mirror recompose %v; expected %v", back, m)
	}

	singular := mgl64.Ident4()
	singular.SetCol(1, mgl64.Vec4{2, 0, 0, 0})
	if _, _, _, ok := DecomposeMat4(singular); ok {
		t.Error("DecomposeMat4 accepted parallel axes")
	}
	if _, _, _, ok := DecomposeMat4(mgl64.Translate3D(math.NaN(), 0, 0)); ok {
		t.Error("DecomposeMat4 accepted NaN")
	}
}

func TestDecomposeZeroScale(t *testing.T) {
	rot := EulerToQuat(mgl64.Vec3{0.3, -1.2, 2.0}, EulerXYZ)
	for _, tc := range []struct {
		name  string
		scale mgl64.Vec3
	}{
		{"x", mgl64.Vec3{0, 2, 1}},
		{"y", mgl64.Vec3{1, 0, 3}},
		{"z mirrored", mgl64.Vec3{1, -1, 0}},
		{"xy", mgl64.Vec3{0, 0, 2}},
		{"all", mgl64.Vec3{0, 0, 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := ComposeMat4(mgl64.Vec3{1, 2, 3}, rot, tc.scale)
			l, r, s, ok := DecomposeMat4(m)
			if !ok {
				t.Fatal("DecomposeMat4 failed")
			}
			for i := range s {
				if (tc.scale[i] == 0) != (s[i] == 0) {
					t.Errorf("scale %v; expected zero axes of %v", s, tc.scale)
				}
			}
			if back := ComposeMat4(l, r, s); !back.ApproxEqualThreshold(m, eps) {
				t.Errorf("recompose %v; expected %v", back, m)
			}
		})
	}

	// two axes left determine the rotation completely
	_, r, _, _ := DecomposeMat4(ComposeMat4(mgl64.Vec3{}, rot, mgl64.Vec3{0, 1, 1}))
	if !r.OrientationEqualThreshold(rot, eps) {
		t.Errorf("rotation %v; expected %v", r, rot)
	}
}
