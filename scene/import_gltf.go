package scene

import (
	"encoding/json"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/utils"
	"github.com/anthonyesau/blender-custom-tools/utils/gltfutils"
)

// readExtras decodes extras into v. Fields that decode stay set when
// others have the wrong type.
func readExtras(extras interface{}, v interface{}) error {
	if extras == nil {
		return nil
	}
	// decoded extras are generic json values
	raw, err := json.Marshal(extras)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func nodeTransform(node *gltf.Node) (loc mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3, err error) {
	if node.Matrix != gltfIdentity && node.Matrix != [16]float32{} {
		var m mgl64.Mat4
		for i, v := range node.Matrix {
			m[i] = float64(v)
		}
		var ok bool
		if loc, rot, scale, ok = utils.DecomposeMat4(m); !ok {
			return loc, rot, scale, errors.Wrapf(host.ErrSingularMatrix, "node %q matrix", node.Name)
		}
		return loc, rot, scale, nil
	}

	t, r, s := node.Translation, node.Rotation, node.Scale
	loc = mgl64.Vec3{float64(t[0]), float64(t[1]), float64(t[2])}
	rot = mgl64.Quat{W: float64(r[3]), V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])}}
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	scale = mgl64.Vec3{float64(s[0]), float64(s[1]), float64(s[2])}
	return loc, rot.Normalize(), scale, nil
}

// ImportGLTF builds a scene from the nodes of doc and its first animation.
// Unnamed nodes get generated names. Rotation keys are converted to the
// rotation mode stored in node extras, quaternion by default.
func ImportGLTF(doc *gltf.Document) (*Scene, error) {
	s := New()

	var names utils.RandomNameGenerator
	for _, node := range doc.Nodes {
		if node.Name != "" {
			names.Reserve(node.Name)
		}
	}

	objects := make([]*Object, len(doc.Nodes))
	for i, node := range doc.Nodes {
		name := node.Name
		if name == "" || s.Object(name) != nil {
			name = names.RandomName()
		}
		o, err := s.AddObject(name)
		if err != nil {
			return nil, err
		}
		objects[i] = o

		loc, rot, scale, err := nodeTransform(node)
		if err != nil {
			return nil, err
		}
		o.mode = host.RotationQuaternion
		o.Location = loc
		o.RotationQuaternion = rot
		o.Scale = scale

		var extras gltfNodeExtras
		if err := readExtras(node.Extras, &extras); err != nil {
			log.Warn("Malformed node extras", "node", name, "err", err)
		}
		if extras.RotationMode != "" {
			mode, err := host.ParseRotationMode(extras.RotationMode)
			if err != nil {
				return nil, errors.Wrapf(err, "node %q", name)
			}
			if err := o.SetRotationMode(mode); err != nil {
				return nil, err
			}
		}
		switch len(extras.ParentInverse) {
		case 0:
		case 16:
			copy(o.ParentInverse[:], extras.ParentInverse)
		default:
			log.Warn("Ignoring parent inverse", "node", name, "values", len(extras.ParentInverse))
		}
	}

	for i, node := range doc.Nodes {
		for _, c := range node.Children {
			if int(c) >= len(objects) {
				return nil, errors.Errorf("node %d has child %d out of range", i, c)
			}
			child := objects[c]
			pinv := child.ParentInverse
			if err := s.SetParent(child, objects[i], false); err != nil {
				return nil, err
			}
			child.ParentInverse = pinv
		}
	}

	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		var extras gltfSceneExtras
		if err := readExtras(doc.Scenes[*doc.Scene].Extras, &extras); err != nil {
			log.Warn("Malformed scene extras", "err", err)
		}
		if extras.FPS > 0 {
			s.FPS = extras.FPS
		}
		if extras.FrameCurrent != 0 {
			s.FrameCurrent = extras.FrameCurrent
		}
		// names may have changed for duplicates, unknown ones are dropped
		for _, name := range extras.Selected {
			if o := s.Object(name); o != nil {
				o.Selected = true
			}
		}
		if s.Object(extras.Active) != nil {
			s.active = s.Object(extras.Active)
		}
	}

	if len(doc.Animations) != 0 {
		if err := s.importAnimation(doc, doc.Animations[0], objects); err != nil {
			return nil, errors.Wrapf(err, "animation %q", doc.Animations[0].Name)
		}
	}
	return s, nil
}

func (s *Scene) importAnimation(doc *gltf.Document, anim *gltf.Animation, objects []*Object) error {
	for ci, channel := range anim.Channels {
		if channel.Target.Node == nil || channel.Sampler == nil {
			continue
		}
		if int(*channel.Target.Node) >= len(objects) || int(*channel.Sampler) >= len(anim.Samplers) {
			return errors.Errorf("channel %d points out of range", ci)
		}
		o := objects[*channel.Target.Node]
		sampler := anim.Samplers[*channel.Sampler]
		if sampler.Input == nil || sampler.Output == nil {
			return errors.Errorf("channel %d sampler has no data", ci)
		}

		times, _, err := gltfutils.ReadFloats(doc, *sampler.Input)
		if err != nil {
			return err
		}
		values, comps, err := gltfutils.ReadFloats(doc, *sampler.Output)
		if err != nil {
			return err
		}

		interp := InterpolationLinear
		stride := 1
		switch sampler.Interpolation {
		case gltf.InterpolationStep:
			interp = InterpolationConstant
		case gltf.InterpolationCubicSpline:
			// in tangent, value, out tangent; only values are kept
			interp = InterpolationBezier
			stride = 3
		}
		if len(values) != len(times)*comps*stride {
			return errors.Errorf("channel %d has %d values for %d keys", ci, len(values)/comps, len(times))
		}
		key := func(i int) []float64 {
			off := (i*stride + stride/2) * comps
			return utils.FloatArray32to64(values[off : off+comps])
		}

		var path host.DataPath
		switch channel.Target.Path {
		case gltf.TRSTranslation:
			path = host.PathLocation
		case gltf.TRSScale:
			path = host.PathScale
		case gltf.TRSRotation:
			path = o.mode.DataPath()
		default:
			// morph weights are not transform channels
			continue
		}

		if o.action == nil {
			o.action = NewAction(anim.Name)
		}

		var prev []float64
		for i, t := range times {
			v := key(i)
			if channel.Target.Path == gltf.TRSRotation {
				q := mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}.Normalize()
				if v, err = o.mode.FromQuat(q, prev); err != nil {
					return err
				}
				prev = v
			}
			// float32 seconds do not map back onto whole frames exactly
			frame := math.Round(float64(t)*s.FPS*1000) / 1000
			for c, value := range v {
				o.action.Ensure(path, c).AddKeyframe(Keyframe{Frame: frame, Value: value, Interpolation: interp})
			}
		}
		for c := 0; c < path.Size(); c++ {
			o.action.Ensure(path, c).RecalcHandles()
		}
	}
	return nil
}

func LoadGLTF(r io.Reader) (*Scene, error) {
	doc, err := gltfutils.Import(r)
	if err != nil {
		return nil, err
	}
	return ImportGLTF(doc)
}
