package scene

import (
	"github.com/anthonyesau/blender-custom-tools/host"
)

// Driver computes one property channel from its variables
type Driver struct {
	Path       string
	ArrayIndex int
	Expression string
	Vars       []*DriverVariable
}

func (d *Driver) DataPath() string { return d.Path }
func (d *Driver) Index() int       { return d.ArrayIndex }

func (d *Driver) Variables() []host.DriverVariable {
	res := make([]host.DriverVariable, len(d.Vars))
	for i, v := range d.Vars {
		res[i] = v
	}
	return res
}

type DriverVariable struct {
	VarName string
	// SINGLE_PROP, TRANSFORMS, ROTATION_DIFF, LOC_DIFF
	Type       string
	TargetList []*DriverTarget
}

func (v *DriverVariable) Name() string { return v.VarName }

func (v *DriverVariable) Targets() []host.DriverTarget {
	res := make([]host.DriverTarget, len(v.TargetList))
	for i, t := range v.TargetList {
		res[i] = t
	}
	return res
}

type DriverTarget struct {
	Object        *Object
	DataPath      string
	TransformType string
}

func (t *DriverTarget) ID() host.Object {
	if t.Object == nil {
		return nil
	}
	return t.Object
}

// SetID accepts only objects of this package, anything else clears the target
func (t *DriverTarget) SetID(o host.Object) {
	obj, _ := o.(*Object)
	t.Object = obj
}
