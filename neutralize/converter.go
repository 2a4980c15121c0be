// Package neutralize clears parent inverse matrices without moving objects.
//
// Static objects get the parent inverse multiplied into their local
// transform. Animated objects go through a Converter, which resamples every
// transform channel on the union of all keyframe frames and writes keyframes
// whose composed transform equals ParentInverse * Local of the original
// animation, so the world motion is unchanged on every keyframe.
package neutralize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/utils"
)

type Options struct {
	// Log enables per frame before/after values at debug level
	Log    bool
	Logger *log.Logger
}

// channel is either backed by an fcurve or a constant
type channel struct {
	curve    host.FCurve
	constant float64
}

func (c channel) evaluate(frame float64) float64 {
	if c.curve != nil {
		return c.curve.Evaluate(frame)
	}
	return c.constant
}

// property groups the channels of a vector property in order
type property struct {
	path     host.DataPath
	channels []channel
}

func (p *property) evaluate(frame float64) []float64 {
	v := make([]float64, len(p.channels))
	for i, c := range p.channels {
		v[i] = c.evaluate(frame)
	}
	return v
}

func (p *property) write(frame float64, values []float64) {
	for i, c := range p.channels {
		if c.curve != nil {
			c.curve.InsertKeyframe(frame, values[i], host.InsertReplace|host.InsertFast)
		}
	}
}

type Converter struct {
	object        host.Object
	mode          host.RotationMode
	parentInverse mgl64.Mat4

	location property
	rotation property
	scale    property
	frames   []float64

	log    bool
	logger *log.Logger
}

// NewConverter folds the parent inverse of obj into its current transform,
// resets the parent inverse and gathers the transform channels. The object
// is already modified when it returns, even on error of a later Convert.
func NewConverter(obj host.Object, opts Options) (*Converter, error) {
	action := obj.Action()
	if action == nil {
		return nil, errors.Wrapf(host.ErrMissingAnimationData, "object %q", obj.Name())
	}
	mode := obj.RotationMode()
	if !mode.Valid() {
		return nil, errors.Wrapf(host.ErrUnsupportedRotationMode, "object %q mode %v", obj.Name(), mode)
	}

	c := &Converter{
		object:        obj,
		mode:          mode,
		parentInverse: obj.MatrixParentInverse(),
		log:           opts.Log,
		logger:        opts.Logger,
	}
	if c.logger == nil {
		c.logger = log.Default()
	}

	// constants are taken before the fold, not after it: they are part of
	// the local transform the parent inverse gets multiplied onto on every
	// frame, and folded values would apply the parent inverse twice
	paths := []host.DataPath{host.PathLocation, mode.DataPath(), host.PathScale}
	values := make([][]float64, len(paths))
	for i, path := range paths {
		v, err := obj.Property(path)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", obj.Name())
		}
		values[i] = v
	}

	if err := obj.SetMatrixBasis(c.parentInverse.Mul4(obj.MatrixBasis())); err != nil {
		return nil, err
	}
	obj.SetMatrixParentInverse(mgl64.Ident4())

	timeline := make(map[float64]struct{})
	gather := func(path host.DataPath, current []float64) property {
		p := property{path: path, channels: make([]channel, len(current))}
		for i := range current {
			fc := action.FCurve(path, i)
			if fc == nil {
				p.channels[i] = channel{constant: current[i]}
				continue
			}
			keys := fc.Keyframes()
			if len(keys) == 0 {
				p.channels[i] = channel{constant: current[i]}
				continue
			}
			p.channels[i] = channel{curve: fc}
			for _, k := range keys {
				timeline[k.Frame] = struct{}{}
			}
		}
		return p
	}
	c.location = gather(paths[0], values[0])
	c.rotation = gather(paths[1], values[1])
	c.scale = gather(paths[2], values[2])

	sorted := make([]float64, 0, len(timeline))
	for f := range timeline {
		sorted = append(sorted, f)
	}
	sort.Float64s(sorted)

	// keys of different channels closer than host.FrameThreshold are one
	// frame for InsertKeyframe, the earliest of them is sampled
	c.frames = make([]float64, 0, len(sorted))
	for _, f := range sorted {
		if n := len(c.frames); n != 0 && f-c.frames[n-1] < host.FrameThreshold {
			continue
		}
		c.frames = append(c.frames, f)
	}

	return c, nil
}

// Frames is the timeline the converter writes keyframes on
func (c *Converter) Frames() []float64 {
	return c.frames
}

type Result struct {
	Object string
	Frames []float64
}

type sample struct {
	frame                     float64
	location, rotation, scale []float64
}

// Convert rewrites every animated channel on every timeline frame. All frames
// are sampled from the original curves before the first keyframe is written,
// so a failing frame leaves the curves untouched.
func (c *Converter) Convert() (*Result, error) {
	samples := make([]sample, 0, len(c.frames))
	var prevRotation []float64
	for _, frame := range c.frames {
		loc := c.location.evaluate(frame)
		rotValues := c.rotation.evaluate(frame)
		scale := c.scale.evaluate(frame)

		if prevRotation == nil {
			prevRotation = rotValues
		}

		rot, err := c.mode.ToQuat(rotValues)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q frame %v", c.object.Name(), frame)
		}
		local := utils.ComposeMat4(vec3(loc), rot, vec3(scale))

		newLoc, newRot, newScale, ok := utils.DecomposeMat4(c.parentInverse.Mul4(local))
		if !ok {
			return nil, errors.Wrapf(host.ErrSingularMatrix, "object %q frame %v", c.object.Name(), frame)
		}
		newRotValues, err := c.mode.FromQuat(newRot, prevRotation)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q frame %v", c.object.Name(), frame)
		}
		prevRotation = newRotValues

		if c.log {
			c.logger.Debug("frame", "object", c.object.Name(), "frame", frame)
			c.logger.Debugf("  location %s -> %s", formatValues(loc), formatValues(newLoc[:]))
			c.logger.Debugf("  rotation %s -> %s", formatValues(rotValues), formatValues(newRotValues))
			c.logger.Debugf("  scale    %s -> %s", formatValues(scale), formatValues(newScale[:]))
		}

		samples = append(samples, sample{
			frame:    frame,
			location: []float64{newLoc[0], newLoc[1], newLoc[2]},
			rotation: newRotValues,
			scale:    []float64{newScale[0], newScale[1], newScale[2]},
		})
	}

	for _, s := range samples {
		c.location.write(s.frame, s.location)
		c.rotation.write(s.frame, s.rotation)
		c.scale.write(s.frame, s.scale)
	}

	return &Result{Object: c.object.Name(), Frames: c.frames}, nil
}

func vec3(v []float64) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func formatValues(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%9.4f", f)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
