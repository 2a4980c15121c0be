package scene

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
)

type Interpolation int

const (
	InterpolationBezier Interpolation = iota
	InterpolationLinear
	InterpolationConstant
)

var interpolationNames = map[Interpolation]string{
	InterpolationBezier:   "BEZIER",
	InterpolationLinear:   "LINEAR",
	InterpolationConstant: "CONSTANT",
}

func (i Interpolation) String() string {
	return interpolationNames[i]
}

func ParseInterpolation(s string) (Interpolation, error) {
	if s == "" {
		return InterpolationBezier, nil
	}
	for i, name := range interpolationNames {
		if name == s {
			return i, nil
		}
	}
	return InterpolationBezier, errors.Errorf("Unknown interpolation %q", s)
}

type Keyframe struct {
	Frame         float64
	Value         float64
	Interpolation Interpolation
	// bezier handles as (frame, value)
	HandleLeft  [2]float64
	HandleRight [2]float64
}

// FCurve animates one component of a vector property. Keyframes are kept
// sorted by frame and unique per frame.
type FCurve struct {
	path  host.DataPath
	index int
	keys  []Keyframe
	// used for keyframes inserted through the host interface
	DefaultInterpolation Interpolation
}

func NewFCurve(path host.DataPath, index int) *FCurve {
	return &FCurve{path: path, index: index}
}

func (fc *FCurve) DataPath() host.DataPath { return fc.path }
func (fc *FCurve) Index() int              { return fc.index }

func (fc *FCurve) Keyframes() []host.Keyframe {
	res := make([]host.Keyframe, len(fc.keys))
	for i, k := range fc.keys {
		res[i] = host.Keyframe{Frame: k.Frame, Value: k.Value}
	}
	return res
}

// Points exposes the full keyframe data, the slice must not be modified
func (fc *FCurve) Points() []Keyframe {
	return fc.keys
}

// find returns the position of the keyframe on frame, or the insert position
func (fc *FCurve) find(frame float64) (int, bool) {
	i := sort.Search(len(fc.keys), func(i int) bool {
		return fc.keys[i].Frame > frame-host.FrameThreshold
	})
	if i < len(fc.keys) && math.Abs(fc.keys[i].Frame-frame) < host.FrameThreshold {
		return i, true
	}
	return i, false
}

// InsertKeyframe adds a keyframe with DefaultInterpolation. An existing keyframe
// on the same frame is only changed with host.InsertReplace; its handles move
// with the value. Without host.InsertFast handles of the whole curve are
// recalculated.
func (fc *FCurve) InsertKeyframe(frame, value float64, flags host.InsertFlag) {
	if i, exists := fc.find(frame); exists {
		if flags&host.InsertReplace == 0 {
			return
		}
		k := &fc.keys[i]
		dy := value - k.Value
		k.Value = value
		k.HandleLeft[1] += dy
		k.HandleRight[1] += dy
	} else {
		fc.keys = append(fc.keys, Keyframe{})
		copy(fc.keys[i+1:], fc.keys[i:])
		fc.keys[i] = Keyframe{
			Frame:         frame,
			Value:         value,
			Interpolation: fc.DefaultInterpolation,
			HandleLeft:    [2]float64{frame - 1, value},
			HandleRight:   [2]float64{frame + 1, value},
		}
	}

	if flags&host.InsertFast == 0 {
		fc.RecalcHandles()
	}
}

// AddKeyframe inserts k keeping its handles, replacing any keyframe on the same frame
func (fc *FCurve) AddKeyframe(k Keyframe) {
	i, exists := fc.find(k.Frame)
	if exists {
		fc.keys[i] = k
		return
	}
	fc.keys = append(fc.keys, Keyframe{})
	copy(fc.keys[i+1:], fc.keys[i:])
	fc.keys[i] = k
}

// RecalcHandles sets auto clamped handles: flat on extremes and curve ends,
// catmull-rom like slopes elsewhere, one third of the neighbour distance long
func (fc *FCurve) RecalcHandles() {
	for i := range fc.keys {
		k := &fc.keys[i]

		left, right := 1.0, 1.0
		if i > 0 {
			left = (k.Frame - fc.keys[i-1].Frame) / 3
		}
		if i < len(fc.keys)-1 {
			right = (fc.keys[i+1].Frame - k.Frame) / 3
		}

		slope := 0.0
		if i > 0 && i < len(fc.keys)-1 {
			prev, next := fc.keys[i-1], fc.keys[i+1]
			extreme := (k.Value >= prev.Value && k.Value >= next.Value) ||
				(k.Value <= prev.Value && k.Value <= next.Value)
			if !extreme {
				slope = (next.Value - prev.Value) / (next.Frame - prev.Frame)
			}
		}

		k.HandleLeft = [2]float64{k.Frame - left, k.Value - slope*left}
		k.HandleRight = [2]float64{k.Frame + right, k.Value + slope*right}
	}
}

func (fc *FCurve) Evaluate(frame float64) float64 {
	if len(fc.keys) == 0 {
		return 0
	}
	first, last := fc.keys[0], fc.keys[len(fc.keys)-1]
	if frame <= first.Frame {
		return first.Value
	}
	if frame >= last.Frame {
		return last.Value
	}

	i := sort.Search(len(fc.keys), func(i int) bool { return fc.keys[i].Frame > frame }) - 1
	a, b := fc.keys[i], fc.keys[i+1]
	if frame == a.Frame {
		return a.Value
	}

	switch a.Interpolation {
	case InterpolationConstant:
		return a.Value
	case InterpolationLinear:
		t := (frame - a.Frame) / (b.Frame - a.Frame)
		return a.Value + (b.Value-a.Value)*t
	default:
		return evaluateBezier(a, b, frame)
	}
}

func evaluateBezier(a, b Keyframe, frame float64) float64 {
	length := b.Frame - a.Frame

	// handles must not overshoot the segment, or the curve is not a function of frame
	h1x := mathClamp(a.HandleRight[0]-a.Frame, 0, length)
	h2x := mathClamp(b.Frame-b.HandleLeft[0], 0, length)
	h1y := a.HandleRight[1] - a.Value
	h2y := b.HandleLeft[1] - b.Value
	if rx := a.HandleRight[0] - a.Frame; rx > 0 && h1x != rx {
		h1y *= h1x / rx
	}
	if lx := b.Frame - b.HandleLeft[0]; lx > 0 && h2x != lx {
		h2y *= h2x / lx
	}
	if sum := h1x + h2x; sum > length {
		f := length / sum
		h1x, h1y = h1x*f, h1y*f
		h2x, h2y = h2x*f, h2y*f
	}

	x0, x1, x2, x3 := a.Frame, a.Frame+h1x, b.Frame-h2x, b.Frame
	y0, y1, y2, y3 := a.Value, a.Value+h1y, b.Value+h2y, b.Value

	bez := func(p0, p1, p2, p3, t float64) float64 {
		u := 1 - t
		return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
	}

	// x(t) is monotonic after the correction above
	lo, hi := 0.0, 1.0
	for iter := 0; iter < 64; iter++ {
		mid := (lo + hi) / 2
		if bez(x0, x1, x2, x3, mid) < frame {
			lo = mid
		} else {
			hi = mid
		}
	}
	return bez(y0, y1, y2, y3, (lo+hi)/2)
}

func mathClamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}
