package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

func TestBoxBounds(t *testing.T) {
	m := Box("crate", math.Vec3{X: 2, Y: 4, Z: 6}, math.Translate(1, 2, 3))
	if m.TriangleCount() != 12 {
		t.Fatalf("TriangleCount = %d, want 12", m.TriangleCount())
	}
	b := m.Bounds()
	if b.Min != (math.Vec3{X: 0, Y: 0, Z: 0}) || b.Max != (math.Vec3{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Bounds = %+v", b)
	}
	if n := len(m.WorldTriangles()); n != 36 {
		t.Errorf("WorldTriangles = %d vertices, want 36", n)
	}
}

func TestWorldTrianglesSkipsBadIndices(t *testing.T) {
	m := &Mesh{
		Positions:    []math.Vec3{{}, {X: 1}, {Y: 1}},
		Indices:      []uint32{0, 1, 2, 0, 1, 9},
		LocalToWorld: math.Identity(),
	}
	if n := len(m.WorldTriangles()); n != 3 {
		t.Errorf("got %d vertices, want 3", n)
	}
	empty := &Mesh{LocalToWorld: math.Identity()}
	if empty.TriangleCount() != 0 || len(empty.WorldTriangles()) != 0 {
		t.Error("empty mesh should have no triangles")
	}
}

func TestRaycastFindsClosest(t *testing.T) {
	s := New()
	s.Add(
		Plane("floor", 20, 20, math.Identity()),
		Box("block", math.Splat(1), math.Translate(0, 0.5, 0)),
	)

	down := picking.Ray{Origin: math.Vec3{X: 0.1, Y: 5, Z: 0.2}, Direction: math.Vec3{Y: -1}}
	hit, ok := s.Raycast(down, DefaultRaycastDistance)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Mesh.Name != "block" || math32.Abs(hit.Distance-4) > 1e-4 {
		t.Errorf("hit %s at %v, want block at 4", hit.Mesh.Name, hit.Distance)
	}
	if hit.Normal.Y < 0.99 {
		t.Errorf("normal should face the ray origin, got %v", hit.Normal)
	}

	if _, ok := s.Raycast(down, 3); ok {
		t.Error("hit beyond max distance")
	}
}

func TestParseAndBuild(t *testing.T) {
	data := []byte(`
camera:
  position: [0, 2, 8]
  target: [0, 1, 0]
light:
  longitude: 90
  latitude: 45
  intensity: 2
trigger: [0, 0.5, 0]
objects:
  - name: floor
    shape: plane
    size: [10, 0, 10]
  - name: pillar
    shape: box
    size: [1, 3, 1]
    position: [2, 1.5, 0]
    rotation: [0, 45, 0]
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := f.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Meshes) != 2 || s.TriangleCount() != 14 {
		t.Errorf("meshes=%d triangles=%d", len(s.Meshes), s.TriangleCount())
	}
	if s.Trigger == nil || s.Trigger.Y != 0.5 {
		t.Errorf("trigger = %v", s.Trigger)
	}
	if s.Sun.Intensity != 2 || s.Sun.Longitude != 90 {
		t.Errorf("sun = %+v", s.Sun)
	}
}

func TestBuildUnknownShape(t *testing.T) {
	f := &File{Objects: []ObjectDef{{Name: "blob", Shape: "sphere"}}}
	if _, err := f.Build(); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("err = %v, want ErrUnknownShape", err)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "scene.yaml")
	if err := os.WriteFile(path, []byte("objects:\n  - shape: box\n    size: [1, 1, 1]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(f.Objects) != 1 {
		t.Errorf("objects = %d", len(f.Objects))
	}

	if _, err := LoadFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultFileBuilds(t *testing.T) {
	s, err := DefaultFile().Build()
	if err != nil {
		t.Fatal(err)
	}
	if s.TriangleCount() == 0 {
		t.Error("default scene is empty")
	}
}

func TestRenderOpaqueDepth(t *testing.T) {
	d := compute.NewDispatcher(2)
	defer d.Close()

	s := New()
	s.Add(Plane("floor", 100, 100, math.Identity()))

	cam := camera.NewFlyCamera(math.Vec3{Y: 2})
	cam.Pitch = -1.5 // almost straight down
	view := camera.NewView(cam, camera.DefaultLens(), 8, 8)

	targets := NewOpaqueTargets(8, 8)
	s.RenderOpaque(d, view, targets)

	depth := targets.Depth.At(4, 4, 0)
	if depth <= 0 || depth >= view.Far {
		t.Errorf("centre depth = %v, want floor hit", depth)
	}
	if a := targets.Color.At(4, 4, 3); a != 1 {
		t.Errorf("alpha = %v, want 1", a)
	}

	targets.Release()
	if !targets.Color.Released() || !targets.Depth.Released() {
		t.Error("targets not released")
	}
}
