package scene

import (
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/anthonyesau/blender-custom-tools/host"
)

type yamlDocument struct {
	FrameCurrent float64      `yaml:"frame_current"`
	FPS          float64      `yaml:"fps,omitempty"`
	Active       string       `yaml:"active,omitempty"`
	Objects      []yamlObject `yaml:"objects"`
}

type yamlObject struct {
	Name               string       `yaml:"name"`
	Parent             string       `yaml:"parent,omitempty"`
	Selected           bool         `yaml:"selected,omitempty"`
	RotationMode       string       `yaml:"rotation_mode,omitempty"`
	Location           []float64    `yaml:"location,flow,omitempty"`
	RotationEuler      []float64    `yaml:"rotation_euler,flow,omitempty"`
	RotationQuaternion []float64    `yaml:"rotation_quaternion,flow,omitempty"`
	RotationAxisAngle  []float64    `yaml:"rotation_axis_angle,flow,omitempty"`
	Scale              []float64    `yaml:"scale,flow,omitempty"`
	ParentInverse      []float64    `yaml:"matrix_parent_inverse,flow,omitempty"`
	Animation          *yamlAction  `yaml:"animation,omitempty"`
	Drivers            []yamlDriver `yaml:"drivers,omitempty"`
}

type yamlAction struct {
	Name    string       `yaml:"name,omitempty"`
	FCurves []yamlFCurve `yaml:"fcurves"`
}

type yamlFCurve struct {
	DataPath  string         `yaml:"data_path"`
	Index     int            `yaml:"index"`
	Keyframes []yamlKeyframe `yaml:"keyframes"`
}

type yamlKeyframe struct {
	Frame         float64   `yaml:"frame"`
	Value         float64   `yaml:"value"`
	Interpolation string    `yaml:"interpolation,omitempty"`
	HandleLeft    []float64 `yaml:"handle_left,flow,omitempty"`
	HandleRight   []float64 `yaml:"handle_right,flow,omitempty"`
}

type yamlDriver struct {
	DataPath   string         `yaml:"data_path"`
	Index      int            `yaml:"index"`
	Expression string         `yaml:"expression,omitempty"`
	Variables  []yamlVariable `yaml:"variables"`
}

type yamlVariable struct {
	Name    string       `yaml:"name"`
	Type    string       `yaml:"type,omitempty"`
	Targets []yamlTarget `yaml:"targets"`
}

type yamlTarget struct {
	ID            string `yaml:"id,omitempty"`
	DataPath      string `yaml:"data_path,omitempty"`
	TransformType string `yaml:"transform_type,omitempty"`
}

func vecFromYaml(dst []float64, src []float64, what string) error {
	if src == nil {
		return nil
	}
	if len(src) != len(dst) {
		return errors.Errorf("%s needs %d values, got %d", what, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// LoadYAML reads a scene document. Objects may reference parents and driver
// targets declared later in the document.
func LoadYAML(r io.Reader) (*Scene, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode scene")
	}

	s := New()
	s.FrameCurrent = doc.FrameCurrent
	if doc.FPS > 0 {
		s.FPS = doc.FPS
	}

	for _, yo := range doc.Objects {
		o, err := s.AddObject(yo.Name)
		if err != nil {
			return nil, err
		}
		if err := yo.apply(o); err != nil {
			return nil, errors.Wrapf(err, "Object %q", yo.Name)
		}
	}

	for _, yo := range doc.Objects {
		o := s.Object(yo.Name)
		if yo.Parent != "" {
			p := s.Object(yo.Parent)
			if p == nil {
				return nil, errors.Errorf("Object %q: parent %q not found", yo.Name, yo.Parent)
			}
			pinv := o.ParentInverse
			if err := s.SetParent(o, p, false); err != nil {
				return nil, err
			}
			o.ParentInverse = pinv
		}
		for _, yd := range yo.Drivers {
			d, err := s.driverFromYaml(yd)
			if err != nil {
				return nil, errors.Wrapf(err, "Object %q", yo.Name)
			}
			o.AddDriver(d)
		}
	}

	if err := s.SetActive(doc.Active); err != nil {
		return nil, err
	}
	return s, nil
}

func (yo *yamlObject) apply(o *Object) error {
	if yo.RotationMode != "" {
		mode, err := host.ParseRotationMode(yo.RotationMode)
		if err != nil {
			return err
		}
		o.mode = mode
	}
	o.Selected = yo.Selected

	if err := vecFromYaml(o.Location[:], yo.Location, "location"); err != nil {
		return err
	}
	if err := vecFromYaml(o.RotationEuler[:], yo.RotationEuler, "rotation_euler"); err != nil {
		return err
	}
	if err := vecFromYaml(o.RotationAxisAngle[:], yo.RotationAxisAngle, "rotation_axis_angle"); err != nil {
		return err
	}
	if err := vecFromYaml(o.Scale[:], yo.Scale, "scale"); err != nil {
		return err
	}
	if yo.RotationQuaternion != nil {
		var q [4]float64
		if err := vecFromYaml(q[:], yo.RotationQuaternion, "rotation_quaternion"); err != nil {
			return err
		}
		o.RotationQuaternion = mgl64.Quat{W: q[0], V: mgl64.Vec3{q[1], q[2], q[3]}}
	}
	if err := vecFromYaml(o.ParentInverse[:], yo.ParentInverse, "matrix_parent_inverse"); err != nil {
		return err
	}

	if yo.Animation != nil {
		a := NewAction(yo.Animation.Name)
		for _, yfc := range yo.Animation.FCurves {
			path := host.DataPath(yfc.DataPath)
			if yfc.Index < 0 || yfc.Index >= path.Size() {
				return errors.Errorf("fcurve %s[%d] is not a transform channel", yfc.DataPath, yfc.Index)
			}
			fc := a.Ensure(path, yfc.Index)
			recalc := false
			for _, yk := range yfc.Keyframes {
				interp, err := ParseInterpolation(yk.Interpolation)
				if err != nil {
					return err
				}
				k := Keyframe{Frame: yk.Frame, Value: yk.Value, Interpolation: interp}
				if len(yk.HandleLeft) == 2 && len(yk.HandleRight) == 2 {
					k.HandleLeft = [2]float64{yk.HandleLeft[0], yk.HandleLeft[1]}
					k.HandleRight = [2]float64{yk.HandleRight[0], yk.HandleRight[1]}
				} else {
					recalc = true
				}
				fc.AddKeyframe(k)
			}
			if recalc {
				fc.RecalcHandles()
			}
		}
		o.action = a
	}
	return nil
}

func (s *Scene) driverFromYaml(yd yamlDriver) (*Driver, error) {
	d := &Driver{Path: yd.DataPath, ArrayIndex: yd.Index, Expression: yd.Expression}
	for _, yv := range yd.Variables {
		v := &DriverVariable{VarName: yv.Name, Type: yv.Type}
		for _, yt := range yv.Targets {
			t := &DriverTarget{DataPath: yt.DataPath, TransformType: yt.TransformType}
			if yt.ID != "" {
				if t.Object = s.Object(yt.ID); t.Object == nil {
					return nil, errors.Errorf("driver target %q not found", yt.ID)
				}
			}
			v.TargetList = append(v.TargetList, t)
		}
		d.Vars = append(d.Vars, v)
	}
	return d, nil
}

func isIdentity(m mgl64.Mat4) bool {
	return m == mgl64.Ident4()
}

func (s *Scene) SaveYAML(w io.Writer) error {
	doc := yamlDocument{
		FrameCurrent: s.FrameCurrent,
		FPS:          s.FPS,
	}
	if s.active != nil {
		doc.Active = s.active.name
	}

	for _, o := range s.objects {
		q := o.RotationQuaternion
		yo := yamlObject{
			Name:               o.name,
			Selected:           o.Selected,
			RotationMode:       o.mode.String(),
			Location:           o.Location[:],
			RotationEuler:      o.RotationEuler[:],
			RotationQuaternion: []float64{q.W, q.V[0], q.V[1], q.V[2]},
			RotationAxisAngle:  o.RotationAxisAngle[:],
			Scale:              o.Scale[:],
		}
		if o.parent != nil {
			yo.Parent = o.parent.name
		}
		if !isIdentity(o.ParentInverse) {
			yo.ParentInverse = o.ParentInverse[:]
		}

		if o.action != nil {
			ya := &yamlAction{Name: o.action.Name}
			for _, fc := range o.action.fcurves {
				yfc := yamlFCurve{DataPath: string(fc.path), Index: fc.index}
				for _, k := range fc.keys {
					yfc.Keyframes = append(yfc.Keyframes, yamlKeyframe{
						Frame:         k.Frame,
						Value:         k.Value,
						Interpolation: k.Interpolation.String(),
						HandleLeft:    []float64{k.HandleLeft[0], k.HandleLeft[1]},
						HandleRight:   []float64{k.HandleRight[0], k.HandleRight[1]},
					})
				}
				ya.FCurves = append(ya.FCurves, yfc)
			}
			yo.Animation = ya
		}

		for _, d := range o.drivers {
			yd := yamlDriver{DataPath: d.Path, Index: d.ArrayIndex, Expression: d.Expression}
			for _, v := range d.Vars {
				yv := yamlVariable{Name: v.VarName, Type: v.Type}
				for _, t := range v.TargetList {
					yt := yamlTarget{DataPath: t.DataPath, TransformType: t.TransformType}
					if t.Object != nil {
						yt.ID = t.Object.name
					}
					yv.Targets = append(yv.Targets, yt)
				}
				yd.Variables = append(yd.Variables, yv)
			}
			yo.Drivers = append(yo.Drivers, yd)
		}

		doc.Objects = append(doc.Objects, yo)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrapf(err, "Failed to encode scene")
	}
	return enc.Close()
}
