package ops

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/scene"
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New()
	root, _ := s.AddObject("Root")
	a, _ := s.AddObject("A")
	b, _ := s.AddObject("B")
	if _, err := s.AddObject("Lonely"); err != nil {
		t.Fatal(err)
	}
	for _, o := range []*scene.Object{a, b} {
		if err := s.SetParent(o, root, false); err != nil {
			t.Fatal(err)
		}
		o.ParentInverse = mgl64.Translate3D(1, 2, 3)
	}
	if err := s.Select("A", "Lonely", "B"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActive("A"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGetOperator(t *testing.T) {
	for _, id := range []string{IDNeutralizeParentInverse, IDNeutralizeTransforms, IDRelateDrivers} {
		op, err := GetOperator(id)
		if err != nil {
			t.Fatal(err)
		}
		if op.IDName() != id {
			t.Errorf("GetOperator(%q) returned %q", id, op.IDName())
		}
	}
	if _, err := GetOperator("object.missing"); err == nil {
		t.Error("unknown operator found")
	}
	if len(Operators()) != 3 {
		t.Errorf("%d operators registered", len(Operators()))
	}
}

func TestPollCancels(t *testing.T) {
	s := testScene(t)
	if err := s.SetActive(""); err != nil {
		t.Fatal(err)
	}

	for _, op := range Operators() {
		if err := op.Poll(s); !errors.Is(err, host.ErrNoActiveObject) {
			t.Errorf("%s poll: %v", op.IDName(), err)
		}
		r := op.Execute(context.Background(), s)
		if r.Status != StatusCancelled || len(r.Objects) != 0 {
			t.Errorf("%s report %+v; expected cancelled with no objects", op.IDName(), r)
		}
	}
	if s.Object("A").ParentInverse == mgl64.Ident4() {
		t.Error("cancelled operator touched the scene")
	}
}

func TestBatchContinuesAfterFailure(t *testing.T) {
	s := testScene(t)

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))

	var progress []float32
	ctx = WithProgress(ctx, func(p float32, format string, a ...interface{}) {
		progress = append(progress, p)
	})

	r := NeutralizeParentInverse{}.Execute(ctx, s)
	if r.Status != StatusFinished {
		t.Fatalf("status %v: %v", r.Status, r.Error)
	}
	if r.RunID == "" {
		t.Error("empty run id")
	}
	if len(r.Objects) != 3 || r.Failed() != 0 || r.Skipped() != 1 {
		t.Fatalf("objects %+v; expected 3 with 1 skipped", r.Objects)
	}

	// selection order is the scene order
	if o := r.Objects[2]; o.Object != "Lonely" || !o.Skipped || !errors.Is(o.Err(), host.ErrNoParent) {
		t.Errorf("lonely object report %+v", r.Objects[2])
	}
	for _, name := range []string{"A", "B"} {
		if pinv := s.Object(name).ParentInverse; pinv != mgl64.Ident4() {
			t.Errorf("%s parent inverse %v", name, pinv)
		}
		if loc := s.Object(name).Location; !loc.ApproxEqual(mgl64.Vec3{1, 2, 3}) {
			t.Errorf("%s location %v", name, loc)
		}
	}

	if len(progress) != 4 || progress[len(progress)-1] != 1 {
		t.Errorf("progress %v", progress)
	}
	if !strings.Contains(buf.String(), "Skipped") {
		t.Errorf("skipped object not logged:\n%s", buf.String())
	}
}

func TestFailedObject(t *testing.T) {
	s := testScene(t)
	singular := mgl64.Ident4()
	singular.SetCol(1, mgl64.Vec4{1, 0, 0, 0})
	s.Object("B").ParentInverse = singular

	r := NeutralizeParentInverse{}.Execute(context.Background(), s)
	if r.Failed() != 1 || r.Skipped() != 1 {
		t.Fatalf("objects %+v; expected 1 failed and 1 skipped", r.Objects)
	}
	if o := r.Objects[1]; o.Object != "B" || o.Skipped || !errors.Is(o.Err(), host.ErrSingularMatrix) {
		t.Errorf("failed object report %+v", o)
	}
	if s.Object("B").ParentInverse != singular {
		t.Error("failed object changed")
	}
}

func TestNeutralizeTransformsOperator(t *testing.T) {
	s := testScene(t)
	a := s.Object("A")
	a.Location = mgl64.Vec3{4, 0, 0}
	world := a.MatrixWorld()

	r := NeutralizeTransforms{}.Execute(context.Background(), s)
	if r.Status != StatusFinished || r.Failed() != 0 || r.Skipped() != 1 {
		t.Fatalf("report %+v", r)
	}
	if a.Location != (mgl64.Vec3{}) {
		t.Errorf("location %v; expected zero", a.Location)
	}
	if !a.MatrixWorld().ApproxEqualThreshold(world, 1e-9) {
		t.Errorf("world %v; expected %v", a.MatrixWorld(), world)
	}
}

func TestRelateDriversOperator(t *testing.T) {
	s := testScene(t)
	a := s.Object("A")
	target := &scene.DriverTarget{}
	a.AddDriver(&scene.Driver{Path: "location", Vars: []*scene.DriverVariable{
		{VarName: "parentX", TargetList: []*scene.DriverTarget{target}},
		{VarName: "x", TargetList: []*scene.DriverTarget{{}}},
	}})

	r := RelateDrivers{}.Execute(context.Background(), s)
	if r.Status != StatusFinished || r.Failed() != 0 {
		t.Fatalf("report %+v", r)
	}
	if target.Object != s.Object("Root") {
		t.Errorf("target %v; expected Root", target.Object)
	}
	if details := r.Objects[0].Details; len(details) != 2 || !strings.Contains(details[1], "ambiguous") {
		t.Errorf("details %v", details)
	}
}

func TestInterruptedBatch(t *testing.T) {
	s := testScene(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NeutralizeParentInverse{}.Execute(ctx, s)
	if r.Status != StatusFinished || len(r.Objects) != 0 || r.Error == "" {
		t.Errorf("report %+v", r)
	}
}
