package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const cliScene = `active: Child
objects:
  - name: Parent
    rotation_euler: [0, 0, 1.5707963267948966]
  - name: Child
    parent: Parent
    selected: true
    matrix_parent_inverse: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 2, 0, 0, 1]
    animation:
      fcurves:
        - data_path: location
          index: 0
          keyframes:
            - {frame: 1, value: 0, interpolation: LINEAR}
            - {frame: 10, value: 5, interpolation: LINEAR}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(cliScene), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommandName(t *testing.T) {
	for idname, want := range map[string]string{
		"object.neutralize_parent_inverse": "neutralize-parent-inverse",
		"object.relate_drivers":            "relate-drivers",
		"plain":                            "plain",
	} {
		if got := commandName(idname); got != want {
			t.Errorf("commandName(%q) = %q; expected %q", idname, got, want)
		}
	}
}

func TestNeutralizeParentInverseCommand(t *testing.T) {
	path := writeScene(t)
	output := filepath.Join(filepath.Dir(path), "out.yaml")

	out, err := execute(t, "neutralize-parent-inverse", path, "-o", output)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(out, "Child") || !strings.Contains(out, "2 frames rewritten") {
		t.Errorf("unexpected output:\n%s", out)
	}

	s, err := loadScene(output)
	if err != nil {
		t.Fatal(err)
	}
	child := s.Object("Child")
	if !child.ParentInverse.ApproxEqual(mgl64.Ident4()) {
		t.Errorf("parent inverse %v", child.ParentInverse)
	}
	keys := child.Animation().Find("location", 0).Keyframes()
	if len(keys) != 2 || math.Abs(keys[0].Value-2) > 1e-9 || math.Abs(keys[1].Value-7) > 1e-9 {
		t.Errorf("keyframes %v", keys)
	}

	// input stays untouched with -o
	if data, _ := os.ReadFile(path); string(data) != cliScene {
		t.Error("input scene was modified")
	}
}

func TestOperatorCommandFailure(t *testing.T) {
	// parallel x and y axes can not be merged into the local transform
	data := strings.Replace(cliScene,
		"matrix_parent_inverse: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 2, 0, 0, 1]",
		"matrix_parent_inverse: [1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]", 1)
	data = data[:strings.Index(data, "    animation:")]
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "neutralize-parent-inverse", path)
	if err == nil || !strings.Contains(err.Error(), "1 of 1 objects failed") {
		t.Errorf("expected failure, got %v\n%s", err, out)
	}
}

func TestOperatorCommandCancelled(t *testing.T) {
	path := writeScene(t)
	out, err := execute(t, "neutralize-transforms", path, "--active", "")
	if err == nil || !strings.Contains(out, "cancelled") {
		t.Errorf("expected cancel, got %v\n%s", err, out)
	}

	// a root object and an animated child are skipped, not failed
	out, err = execute(t, "neutralize-transforms", path, "--select", "Parent,Child")
	if err != nil || !strings.Contains(out, "Parent skipped") || !strings.Contains(out, "Child skipped") {
		t.Errorf("expected skipped objects, got %v\n%s", err, out)
	}
	s, err := loadScene(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Object("Parent").Selected != true {
		t.Error("selection not saved")
	}
}

func TestConvertAndInfo(t *testing.T) {
	path := writeScene(t)
	glb := filepath.Join(filepath.Dir(path), "scene.glb")

	if out, err := execute(t, "convert", path, glb); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	out, err := execute(t, "info", glb)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	for _, want := range []string{"2 objects", "Parent", "Child *", "set"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output misses %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "dump", path)
	if err != nil || !strings.Contains(out, "Child") {
		t.Errorf("dump: %v\n%s", err, out)
	}

	if _, err := execute(t, "info", filepath.Join(filepath.Dir(path), "scene.blend")); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := execute(t, "info", path, "--config", filepath.Join(filepath.Dir(path), "missing.toml")); err == nil {
		t.Error("missing explicit config accepted")
	}
}
