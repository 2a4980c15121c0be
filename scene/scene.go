// Package scene is an in-memory implementation of the host surface: objects
// with parent links, parent inverse matrices, actions made of fcurves and
// drivers. Scenes are read from and written to yaml documents and glTF files.
package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
)

const DefaultFPS = 24

type Scene struct {
	objects []*Object
	byName  map[string]*Object
	active  *Object

	FrameCurrent float64
	FPS          float64
}

func New() *Scene {
	return &Scene{
		byName:       make(map[string]*Object),
		FrameCurrent: 1,
		FPS:          DefaultFPS,
	}
}

// AddObject creates an unparented object with identity transform
func (s *Scene) AddObject(name string) (*Object, error) {
	if name == "" {
		return nil, errors.New("Empty object name")
	}
	if _, exists := s.byName[name]; exists {
		return nil, errors.Errorf("Object %q already exists", name)
	}
	o := newObject(name)
	s.objects = append(s.objects, o)
	s.byName[name] = o
	return o, nil
}

func (s *Scene) Object(name string) *Object {
	return s.byName[name]
}

// Objects in creation order
func (s *Scene) Objects() []*Object {
	return s.objects
}

// SetParent links child to parent. With keepTransform the parent inverse is
// set to the inverse of the parent world matrix, so the child does not move.
// Otherwise the parent inverse is reset to identity. A nil parent unlinks.
func (s *Scene) SetParent(child, parent *Object, keepTransform bool) error {
	for p := parent; p != nil; p = p.parent {
		if p == child {
			return errors.Errorf("Parenting %q to %q makes a loop", child.name, parent.name)
		}
	}
	child.parent = parent
	child.ParentInverse = mgl64.Ident4()
	if parent != nil && keepTransform {
		world := parent.MatrixWorld()
		if world.Det() == 0 {
			return errors.Wrapf(host.ErrSingularMatrix, "parent %q", parent.name)
		}
		child.ParentInverse = world.Inv()
	}
	return nil
}

func (s *Scene) Children(parent *Object) []*Object {
	var res []*Object
	for _, o := range s.objects {
		if o.parent == parent {
			res = append(res, o)
		}
	}
	return res
}

// Select sets the selection to exactly the named objects
func (s *Scene) Select(names ...string) error {
	for _, name := range names {
		if s.byName[name] == nil {
			return errors.Errorf("Object %q not found", name)
		}
	}
	for _, o := range s.objects {
		o.Selected = false
	}
	for _, name := range names {
		s.byName[name].Selected = true
	}
	return nil
}

// SetActive with empty name clears the active object
func (s *Scene) SetActive(name string) error {
	if name == "" {
		s.active = nil
		return nil
	}
	o := s.byName[name]
	if o == nil {
		return errors.Errorf("Object %q not found", name)
	}
	s.active = o
	return nil
}

func (s *Scene) Active() *Object { return s.active }

func (s *Scene) SelectedObjects() []host.Object {
	var res []host.Object
	for _, o := range s.objects {
		if o.Selected {
			res = append(res, o)
		}
	}
	return res
}

func (s *Scene) ActiveObject() host.Object {
	if s.active == nil {
		return nil
	}
	return s.active
}

// SetFrame evaluates the animation of every object on frame
func (s *Scene) SetFrame(frame float64) {
	s.FrameCurrent = frame
	for _, o := range s.objects {
		o.EvaluateAt(frame)
	}
}

func sortedFrames(set map[float64]struct{}) []float64 {
	res := make([]float64, 0, len(set))
	for f := range set {
		res = append(res, f)
	}
	sort.Float64s(res)
	return res
}
