// Package relate points driver variables at the object owning the driver or
// at its parent, reading the intent from the variable name: a name containing
// "self" targets the object, one containing "parent" targets the parent.
package relate

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
)

type Marker int

const (
	MarkerNone Marker = iota
	MarkerSelf
	MarkerParent
)

var markerWords = map[Marker]string{
	MarkerSelf:   "self",
	MarkerParent: "parent",
}

func (m Marker) String() string {
	if w, ok := markerWords[m]; ok {
		return w
	}
	return "none"
}

// Match finds the marker occurring first in name and returns it with the part
// of name following it. When both are absent the name is returned unchanged.
func Match(name string) (Marker, string) {
	self := strings.Index(name, markerWords[MarkerSelf])
	parent := strings.Index(name, markerWords[MarkerParent])

	switch {
	case self >= 0 && (parent < 0 || self < parent):
		return MarkerSelf, name[self+len(markerWords[MarkerSelf]):]
	case parent >= 0:
		return MarkerParent, name[parent+len(markerWords[MarkerParent]):]
	}
	return MarkerNone, name
}

// Variable is the outcome for one driver variable
type Variable struct {
	Driver    string
	Name      string
	Markers   []Marker
	Remaining string
	// Err is set when the variable was skipped
	Err error
}

func (v Variable) String() string {
	if v.Err != nil {
		return fmt.Sprintf("%s %q: %v", v.Driver, v.Name, v.Err)
	}
	return fmt.Sprintf("%s %q: %v, %q left", v.Driver, v.Name, v.Markers, v.Remaining)
}

type Result struct {
	Object    string
	Variables []Variable
}

// Retargeted counts the variables that got at least one target set
func (r *Result) Retargeted() int {
	n := 0
	for _, v := range r.Variables {
		if v.Err == nil && len(v.Markers) != 0 {
			n++
		}
	}
	return n
}

// Drivers retargets the variables of every driver of obj. Targets are set in
// order, each one by the next marker found in what is left of the name,
// until a target has no marker. A variable without any marker, or asking for
// the parent of a root object, is left untouched and reported through its
// Err; these never fail the whole object.
func Drivers(obj host.Object) *Result {
	res := &Result{Object: obj.Name()}
	for _, d := range obj.Drivers() {
		driver := fmt.Sprintf("%s[%d]", d.DataPath(), d.Index())
		for _, v := range d.Variables() {
			res.Variables = append(res.Variables, retarget(obj, driver, v))
		}
	}
	return res
}

func retarget(obj host.Object, driver string, v host.DriverVariable) Variable {
	out := Variable{Driver: driver, Name: v.Name(), Remaining: v.Name()}

	targets := v.Targets()
	if len(targets) == 0 {
		return out
	}
	ids := make([]host.Object, 0, len(targets))
	for range targets {
		marker, rest := Match(out.Remaining)
		if marker == MarkerNone {
			break
		}
		var id host.Object = obj
		if marker == MarkerParent {
			if id = obj.Parent(); id == nil {
				out.Err = errors.Wrapf(host.ErrNoParent, "variable %q of object %q", v.Name(), obj.Name())
				return out
			}
		}
		ids = append(ids, id)
		out.Markers = append(out.Markers, marker)
		out.Remaining = rest
	}

	if len(ids) == 0 {
		out.Err = errors.Wrapf(host.ErrAmbiguousDriverNameMatch, "variable %q of object %q", v.Name(), obj.Name())
		return out
	}
	for i, id := range ids {
		targets[i].SetID(id)
	}
	return out
}
