package relate

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/scene"
)

func TestMatch(t *testing.T) {
	for _, tc := range []struct {
		name   string
		marker Marker
		rest   string
	}{
		{"selfX", MarkerSelf, "X"},
		{"parentY", MarkerParent, "Y"},
		{"my_self_rot", MarkerSelf, "_rot"},
		{"selfparentZ", MarkerSelf, "parentZ"},
		{"parent_selfZ", MarkerParent, "_selfZ"},
		{"var", MarkerNone, "var"},
		{"", MarkerNone, ""},
		{"Self", MarkerNone, "Self"},
	} {
		marker, rest := Match(tc.name)
		if marker != tc.marker || rest != tc.rest {
			t.Errorf("Match(%q) = %v, %q; expected %v, %q", tc.name, marker, rest, tc.marker, tc.rest)
		}
	}
}

func newDriven(t *testing.T, names ...string) (*scene.Object, *scene.Object, *scene.Object, *scene.Driver) {
	t.Helper()
	s := scene.New()
	parent, _ := s.AddObject("Parent")
	child, _ := s.AddObject("Child")
	other, _ := s.AddObject("Other")
	if err := s.SetParent(child, parent, false); err != nil {
		t.Fatal(err)
	}

	d := &scene.Driver{Path: "location", ArrayIndex: 0}
	for _, name := range names {
		d.Vars = append(d.Vars, &scene.DriverVariable{
			VarName:    name,
			Type:       "TRANSFORMS",
			TargetList: []*scene.DriverTarget{{Object: other}},
		})
	}
	child.AddDriver(d)
	return parent, child, other, d
}

func TestDriversSelf(t *testing.T) {
	_, child, _, d := newDriven(t, "selfX")

	res := Drivers(child)
	if len(res.Variables) != 1 {
		t.Fatalf("variables %v", res.Variables)
	}
	v := res.Variables[0]
	if v.Err != nil {
		t.Fatal(v.Err)
	}
	if v.Remaining != "X" {
		t.Errorf("remaining %q; expected \"X\"", v.Remaining)
	}
	if got := d.Vars[0].TargetList[0].Object; got != child {
		t.Errorf("target %v; expected Child", got)
	}
	if v.Driver != "location[0]" {
		t.Errorf("driver %q", v.Driver)
	}
}

func TestDriversParent(t *testing.T) {
	parent, child, _, d := newDriven(t, "parentY")

	res := Drivers(child)
	v := res.Variables[0]
	if v.Err != nil {
		t.Fatal(v.Err)
	}
	if v.Remaining != "Y" {
		t.Errorf("remaining %q; expected \"Y\"", v.Remaining)
	}
	if got := d.Vars[0].TargetList[0].Object; got != parent {
		t.Errorf("target %v; expected Parent", got)
	}
	if res.Retargeted() != 1 {
		t.Errorf("retargeted %d; expected 1", res.Retargeted())
	}
}

func TestDriversChain(t *testing.T) {
	parent, child, other, d := newDriven(t)
	d.Vars = append(d.Vars, &scene.DriverVariable{
		VarName:    "selfparent_dist",
		Type:       "LOC_DIFF",
		TargetList: []*scene.DriverTarget{{Object: other}, {Object: other}},
	}, &scene.DriverVariable{
		VarName:    "parent_dist",
		Type:       "LOC_DIFF",
		TargetList: []*scene.DriverTarget{{Object: other}, {Object: other}},
	})

	res := Drivers(child)
	for _, v := range res.Variables {
		if v.Err != nil {
			t.Fatalf("%v", v)
		}
	}

	both := d.Vars[0].TargetList
	if both[0].Object != child || both[1].Object != parent {
		t.Errorf("chained targets %v, %v; expected Child, Parent", both[0].Object.Name(), both[1].Object.Name())
	}
	if res.Variables[0].Remaining != "_dist" {
		t.Errorf("remaining %q", res.Variables[0].Remaining)
	}

	// second target has no marker left and keeps its object
	one := d.Vars[1].TargetList
	if one[0].Object != parent || one[1].Object != other {
		t.Errorf("targets %v, %v; expected Parent, Other", one[0].Object.Name(), one[1].Object.Name())
	}
}

func TestDriversSkipped(t *testing.T) {
	_, child, other, d := newDriven(t, "distance", "selfX")

	res := Drivers(child)
	if len(res.Variables) != 2 {
		t.Fatalf("variables %v", res.Variables)
	}
	if err := res.Variables[0].Err; !errors.Is(err, host.ErrAmbiguousDriverNameMatch) || !errors.Is(err, host.ErrPreconditionViolation) {
		t.Errorf("variable without marker: %v", err)
	}
	if d.Vars[0].TargetList[0].Object != other {
		t.Error("variable without marker was retargeted")
	}
	if res.Variables[1].Err != nil || d.Vars[1].TargetList[0].Object != child {
		t.Error("skipped variable stopped the next one")
	}

	s := scene.New()
	root, _ := s.AddObject("Root")
	root.AddDriver(&scene.Driver{Path: "scale", Vars: []*scene.DriverVariable{{
		VarName:    "parentX",
		TargetList: []*scene.DriverTarget{{}},
	}}})
	res = Drivers(root)
	if err := res.Variables[0].Err; !errors.Is(err, host.ErrNoParent) {
		t.Errorf("parent marker on root: %v", err)
	}
	if res.Retargeted() != 0 {
		t.Errorf("retargeted %d; expected 0", res.Retargeted())
	}
}
