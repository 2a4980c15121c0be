package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/utils"
)

// Object is an in-memory scene object holding its transform channels in
// every rotation representation, like the host application does. Only the
// channels of the active rotation mode take part in the transform.
type Object struct {
	name   string
	parent *Object
	mode   host.RotationMode

	Location           mgl64.Vec3
	RotationEuler      mgl64.Vec3
	RotationQuaternion mgl64.Quat
	// angle, x, y, z
	RotationAxisAngle [4]float64
	Scale             mgl64.Vec3
	ParentInverse     mgl64.Mat4

	Selected bool

	action  *Action
	drivers []*Driver
}

func newObject(name string) *Object {
	return &Object{
		name:               name,
		mode:               host.RotationEulerXYZ,
		RotationQuaternion: mgl64.QuatIdent(),
		RotationAxisAngle:  [4]float64{0, 0, 1, 0},
		Scale:              mgl64.Vec3{1, 1, 1},
		ParentInverse:      mgl64.Ident4(),
	}
}

func (o *Object) Name() string { return o.name }

func (o *Object) Parent() host.Object {
	if o.parent == nil {
		return nil
	}
	return o.parent
}

func (o *Object) ParentObject() *Object { return o.parent }

func (o *Object) RotationMode() host.RotationMode { return o.mode }

// SetRotationMode switches mode keeping the current orientation
func (o *Object) SetRotationMode(mode host.RotationMode) error {
	if !mode.Valid() {
		return errors.Wrapf(host.ErrUnsupportedRotationMode, "object %q", o.name)
	}
	if mode == o.mode {
		return nil
	}
	q := o.rotationQuat()
	prev, _ := o.Property(mode.DataPath())
	values, err := mode.FromQuat(q, prev)
	if err != nil {
		return err
	}
	o.mode = mode
	o.setRotationValues(values)
	return nil
}

func (o *Object) rotationValues() []float64 {
	switch o.mode.DataPath() {
	case host.PathRotationQuaternion:
		q := o.RotationQuaternion
		return []float64{q.W, q.V[0], q.V[1], q.V[2]}
	case host.PathRotationAxisAngle:
		return o.RotationAxisAngle[:]
	default:
		return o.RotationEuler[:]
	}
}

func (o *Object) setRotationValues(v []float64) {
	switch o.mode.DataPath() {
	case host.PathRotationQuaternion:
		o.RotationQuaternion = mgl64.Quat{W: v[0], V: mgl64.Vec3{v[1], v[2], v[3]}}
	case host.PathRotationAxisAngle:
		copy(o.RotationAxisAngle[:], v)
	default:
		copy(o.RotationEuler[:], v)
	}
}

func (o *Object) rotationQuat() mgl64.Quat {
	q, err := o.mode.ToQuat(o.rotationValues())
	if err != nil {
		return mgl64.QuatIdent()
	}
	return q
}

func (o *Object) MatrixBasis() mgl64.Mat4 {
	return utils.ComposeMat4(o.Location, o.rotationQuat(), o.Scale)
}

func (o *Object) SetMatrixBasis(m mgl64.Mat4) error {
	loc, rot, scale, ok := utils.DecomposeMat4(m)
	if !ok {
		return errors.Wrapf(host.ErrSingularMatrix, "object %q", o.name)
	}
	values, err := o.mode.FromQuat(rot, o.rotationValues())
	if err != nil {
		return errors.Wrapf(err, "object %q", o.name)
	}
	o.Location = loc
	o.Scale = scale
	o.setRotationValues(values)
	return nil
}

func (o *Object) MatrixParentInverse() mgl64.Mat4 { return o.ParentInverse }

func (o *Object) SetMatrixParentInverse(m mgl64.Mat4) { o.ParentInverse = m }

func (o *Object) MatrixWorld() mgl64.Mat4 {
	local := o.MatrixBasis()
	if o.parent == nil {
		return local
	}
	return o.parent.MatrixWorld().Mul4(o.ParentInverse).Mul4(local)
}

func (o *Object) Property(path host.DataPath) ([]float64, error) {
	switch path {
	case host.PathLocation:
		return []float64{o.Location[0], o.Location[1], o.Location[2]}, nil
	case host.PathScale:
		return []float64{o.Scale[0], o.Scale[1], o.Scale[2]}, nil
	case host.PathRotationEuler:
		return []float64{o.RotationEuler[0], o.RotationEuler[1], o.RotationEuler[2]}, nil
	case host.PathRotationQuaternion:
		q := o.RotationQuaternion
		return []float64{q.W, q.V[0], q.V[1], q.V[2]}, nil
	case host.PathRotationAxisAngle:
		a := o.RotationAxisAngle
		return []float64{a[0], a[1], a[2], a[3]}, nil
	}
	return nil, errors.Errorf("Unknown property %q", path)
}

// SetPropertyValue writes one channel of a transform property
func (o *Object) SetPropertyValue(path host.DataPath, index int, value float64) error {
	if index < 0 || index >= path.Size() {
		return errors.Errorf("Index %d out of range for %q", index, path)
	}
	switch path {
	case host.PathLocation:
		o.Location[index] = value
	case host.PathScale:
		o.Scale[index] = value
	case host.PathRotationEuler:
		o.RotationEuler[index] = value
	case host.PathRotationQuaternion:
		if index == 0 {
			o.RotationQuaternion.W = value
		} else {
			o.RotationQuaternion.V[index-1] = value
		}
	case host.PathRotationAxisAngle:
		o.RotationAxisAngle[index] = value
	}
	return nil
}

func (o *Object) Action() host.Action {
	if o.action == nil {
		return nil
	}
	return o.action
}

func (o *Object) Animation() *Action { return o.action }

func (o *Object) SetAnimation(a *Action) { o.action = a }

func (o *Object) Drivers() []host.Driver {
	res := make([]host.Driver, len(o.drivers))
	for i, d := range o.drivers {
		res[i] = d
	}
	return res
}

func (o *Object) DriverList() []*Driver { return o.drivers }

func (o *Object) AddDriver(d *Driver) { o.drivers = append(o.drivers, d) }

// EvaluateAt sets every animated channel to its value on frame
func (o *Object) EvaluateAt(frame float64) {
	if o.action == nil {
		return
	}
	for _, fc := range o.action.fcurves {
		if len(fc.keys) == 0 {
			continue
		}
		// fcurves on unknown paths are kept but not applied
		_ = o.SetPropertyValue(fc.path, fc.index, fc.Evaluate(frame))
	}
}
