package picking

import (
	"testing"

	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-4
}

func TestClipAABB(t *testing.T) {
	box := NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	tests := []struct {
		name      string
		ray       Ray
		near, far float32
		hit       bool
	}{
		{"through", Ray{math.Vec3{X: -5}, math.Vec3{X: 1}}, 4, 6, true},
		{"inside", Ray{math.Vec3{}, math.Vec3{Y: 1}}, 0, 1, true},
		{"behind", Ray{math.Vec3{X: 5}, math.Vec3{X: 1}}, 0, 0, false},
		{"miss parallel", Ray{math.Vec3{X: -5, Y: 3}, math.Vec3{X: 1}}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, f, hit := tt.ray.ClipAABB(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && (!near(n, tt.near) || !near(f, tt.far)) {
				t.Errorf("clip = [%v, %v], want [%v, %v]", n, f, tt.near, tt.far)
			}
		})
	}
}

func TestIntersectAABBInsideReturnsExit(t *testing.T) {
	box := AABBFromCenter(math.Vec3{}, math.Splat(2))
	d, hit := Ray{math.Vec3{}, math.Vec3{Z: -1}}.IntersectAABB(box)
	if !hit || !near(d, 2) {
		t.Errorf("IntersectAABB = %v, %v; want 2, true", d, hit)
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: -1, Y: 0, Z: -1}
	b := math.Vec3{X: 1, Y: 0, Z: -1}
	c := math.Vec3{X: 0, Y: 0, Z: 1}

	down := Ray{math.Vec3{Y: 3}, math.Vec3{Y: -1}}
	if d, hit := down.IntersectTriangle(a, b, c); !hit || !near(d, 3) {
		t.Errorf("downward ray: %v, %v", d, hit)
	}

	up := Ray{math.Vec3{Y: 3}, math.Vec3{Y: 1}}
	if _, hit := up.IntersectTriangle(a, b, c); hit {
		t.Error("ray pointing away should miss")
	}

	outside := Ray{math.Vec3{X: 5, Y: 3}, math.Vec3{Y: -1}}
	if _, hit := outside.IntersectTriangle(a, b, c); hit {
		t.Error("ray outside the triangle should miss")
	}
}

func TestScreenToRayCentre(t *testing.T) {
	view := math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(math32.Pi/3, 1, 0.1, 100)
	inv := proj.Mul(view).Inverse()

	r := ScreenToRay(50, 50, 100, 100, inv)
	if !near(r.Direction.Z, -1) || !near(r.Direction.X, 0) {
		t.Errorf("centre ray direction = %v", r.Direction)
	}
	if tt, ok := r.IntersectPlaneY(-1); ok {
		t.Errorf("ray along -Z should not hit y=-1, got t=%v", tt)
	}
}

func TestTransformAABB(t *testing.T) {
	local := NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	m := math.Compose(math.Vec3{X: 10}, math.QuatIdentity(), math.Vec3{X: 2, Y: 1, Z: 1})
	w := TransformAABB(local, m)
	if !near(w.Min.X, 8) || !near(w.Max.X, 12) || !near(w.Center().X, 10) {
		t.Errorf("TransformAABB = %+v", w)
	}
	if !w.Contains(math.Vec3{X: 11}) || w.Contains(math.Vec3{X: 13}) {
		t.Error("Contains disagrees with bounds")
	}
}
