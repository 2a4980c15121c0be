package scene

import (
	"github.com/anthonyesau/blender-custom-tools/host"
)

// Action is the animation track of one object
type Action struct {
	Name    string
	fcurves []*FCurve
}

func NewAction(name string) *Action {
	return &Action{Name: name}
}

func (a *Action) FCurves() []*FCurve {
	return a.fcurves
}

func (a *Action) Find(path host.DataPath, index int) *FCurve {
	for _, fc := range a.fcurves {
		if fc.path == path && fc.index == index {
			return fc
		}
	}
	return nil
}

// FCurve returns nil interface for missing channels
func (a *Action) FCurve(path host.DataPath, index int) host.FCurve {
	if fc := a.Find(path, index); fc != nil {
		return fc
	}
	return nil
}

// Ensure returns the fcurve for the channel, creating it when missing
func (a *Action) Ensure(path host.DataPath, index int) *FCurve {
	if fc := a.Find(path, index); fc != nil {
		return fc
	}
	fc := NewFCurve(path, index)
	a.fcurves = append(a.fcurves, fc)
	return fc
}

// Frames returns every keyframe frame of the action, sorted and unique
func (a *Action) Frames() []float64 {
	set := make(map[float64]struct{})
	for _, fc := range a.fcurves {
		for _, k := range fc.keys {
			set[k.Frame] = struct{}{}
		}
	}
	return sortedFrames(set)
}
