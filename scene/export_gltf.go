package scene

import (
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/utils"
	"github.com/anthonyesau/blender-custom-tools/utils/gltfutils"
)

// gltf has no parent inverse, it rides along in node extras
type gltfNodeExtras struct {
	ParentInverse []float64 `json:"parentInverse,omitempty"`
	RotationMode  string    `json:"rotationMode,omitempty"`
}

// scene state without a gltf counterpart
type gltfSceneExtras struct {
	FPS          float64  `json:"fps,omitempty"`
	FrameCurrent float64  `json:"frameCurrent,omitempty"`
	Active       string   `json:"active,omitempty"`
	Selected     []string `json:"selected,omitempty"`
}

var gltfIdentity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// ExportGLTF builds a document with one node per object, node transforms
// being the basis of the objects. Viewers ignore the parent inverse stored
// in extras, so objects should have it neutralized before export.
func (s *Scene) ExportGLTF() (*gltf.Document, error) {
	doc := gltfutils.NewDocument()

	nodeIndex := make(map[*Object]uint32, len(s.objects))
	for i, o := range s.objects {
		nodeIndex[o] = uint32(i)
	}

	extras := gltfSceneExtras{FPS: s.FPS, FrameCurrent: s.FrameCurrent}
	if s.active != nil {
		extras.Active = s.active.name
	}

	anim := &gltf.Animation{Name: "Action"}
	for _, o := range s.objects {
		if o.Selected {
			extras.Selected = append(extras.Selected, o.name)
		}
		q := o.rotationQuat()
		node := &gltf.Node{
			Name:        o.name,
			Matrix:      gltfIdentity,
			Translation: [3]float32{float32(o.Location[0]), float32(o.Location[1]), float32(o.Location[2])},
			Rotation:    [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)},
			Scale:       [3]float32{float32(o.Scale[0]), float32(o.Scale[1]), float32(o.Scale[2])},
		}

		nodeExtras := gltfNodeExtras{RotationMode: o.mode.String()}
		if !isIdentity(o.ParentInverse) {
			nodeExtras.ParentInverse = o.ParentInverse[:]
		}
		node.Extras = nodeExtras

		for _, c := range s.Children(o) {
			node.Children = append(node.Children, nodeIndex[c])
		}
		if o.parent == nil {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, nodeIndex[o])
		}
		doc.Nodes = append(doc.Nodes, node)

		if o.action != nil {
			if err := s.exportObjectAnimation(doc, anim, o, nodeIndex[o]); err != nil {
				return nil, errors.Wrapf(err, "Object %q", o.name)
			}
		}
	}

	doc.Scenes[0].Extras = extras
	if len(anim.Channels) != 0 {
		doc.Animations = append(doc.Animations, anim)
	}
	return doc, nil
}

func (s *Scene) exportObjectAnimation(doc *gltf.Document, anim *gltf.Animation, o *Object, node uint32) error {
	type property struct {
		path host.DataPath
		trs  gltf.TRSProperty
	}
	props := []property{
		{host.PathLocation, gltf.TRSTranslation},
		{o.mode.DataPath(), gltf.TRSRotation},
		{host.PathScale, gltf.TRSScale},
	}

	for _, prop := range props {
		size := prop.path.Size()
		current, err := o.Property(prop.path)
		if err != nil {
			return err
		}

		curves := make([]*FCurve, size)
		set := make(map[float64]struct{})
		step := true
		for i := range curves {
			fc := o.action.Find(prop.path, i)
			if fc == nil || len(fc.keys) == 0 {
				continue
			}
			curves[i] = fc
			for _, k := range fc.keys {
				set[k.Frame] = struct{}{}
				if k.Interpolation != InterpolationConstant {
					step = false
				}
			}
		}
		frames := sortedFrames(set)
		if len(frames) == 0 {
			continue
		}

		times := make([]float32, len(frames))
		var values []float32
		var prevQuat *mgl64.Quat
		for fi, frame := range frames {
			times[fi] = float32(frame / s.FPS)

			v := make([]float64, size)
			for i := range v {
				if curves[i] != nil {
					v[i] = curves[i].Evaluate(frame)
				} else {
					v[i] = current[i]
				}
			}

			if prop.trs == gltf.TRSRotation {
				q, err := o.mode.ToQuat(v)
				if err != nil {
					return err
				}
				if prevQuat != nil {
					q = utils.QuatAlign(q, *prevQuat)
				}
				prevQuat = &q
				values = append(values, float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W))
			} else {
				values = append(values, utils.FloatArray64to32(v)...)
			}
		}

		outType := gltf.AccessorVec3
		if prop.trs == gltf.TRSRotation {
			outType = gltf.AccessorVec4
		}
		interpolation := gltf.InterpolationLinear
		if step {
			interpolation = gltf.InterpolationStep
		}

		input := gltfutils.WriteFloats(doc, times, gltf.AccessorScalar)
		output := gltfutils.WriteFloats(doc, values, outType)
		anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(input),
			Output:        gltf.Index(output),
			Interpolation: interpolation,
		})
		anim.Channels = append(anim.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(node),
				Path: prop.trs,
			},
		})
	}
	return nil
}

// SaveGLTF writes the binary (glb) or json flavour
func (s *Scene) SaveGLTF(w io.Writer, binary bool) error {
	doc, err := s.ExportGLTF()
	if err != nil {
		return err
	}
	if binary {
		return gltfutils.ExportBinary(w, doc)
	}
	return gltfutils.ExportJson(w, doc)
}
