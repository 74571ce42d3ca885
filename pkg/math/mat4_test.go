package math

import (
	"math"
	"testing"
)

func nearVec(a, b Vec3, eps float32) bool {
	return a.Sub(b).Length() <= eps
}

func TestIdentityIsNeutral(t *testing.T) {
	tests := map[string]Mat4{
		"translate":   Translate(1, 2, 3),
		"scale":       Scale(2, 3, 4),
		"perspective": Perspective(float32(math.Pi/3), 16.0/9, 0.1, 100),
		"look at":     LookAt(Vec3{3, 2, 5}, Vec3{}, Vec3{0, 1, 0}),
		"compose":     Compose(Vec3{1, 0, -1}, QuatFromEuler(0, 45, 0), Splat(2)),
	}
	id := Identity()
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			if m.Mul(id) != m {
				t.Errorf("M * I != M")
			}
			if id.Mul(m) != m {
				t.Errorf("I * M != M")
			}
		})
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"scale then translate", Translate(1, 0, 0).Mul(Scale(3, 1, 1)), Vec3{1, 1, 1}, Vec3{4, 1, 1}},
		{"yaw 90", Compose(Vec3{}, QuatFromEuler(0, 90, 0), Splat(1)), Vec3{0, 0, -1}, Vec3{-1, 0, 0}},
		{"voxel box on the floor", Compose(Vec3{0, 0.5, 0}, QuatIdentity(), Vec3{4, 1, 4}), Vec3{0.5, 0.5, 0.5}, Vec3{2, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformVec3(tt.in); !nearVec(got, tt.want, 1e-5) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(100)
	m := Perspective(float32(math.Pi/4), 1, near, far)

	if m[11] != -1 || m[15] != 0 {
		t.Fatalf("not a perspective matrix: m[11]=%v m[15]=%v", m[11], m[15])
	}
	if z := m.TransformVec3(Vec3{Z: -near}).Z; abs(z+1) > 1e-4 {
		t.Errorf("near plane maps to ndc z %v, want -1", z)
	}
	if z := m.TransformVec3(Vec3{Z: -far}).Z; abs(z-1) > 1e-3 {
		t.Errorf("far plane maps to ndc z %v, want 1", z)
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{0, 2, 5}
	m := LookAt(eye, Vec3{0, 2, 0}, Vec3{0, 1, 0})

	if got := m.TransformVec3(eye); !nearVec(got, Vec3{}, 1e-5) {
		t.Errorf("eye maps to %v, want origin", got)
	}
	// The target lies straight down -Z in view space.
	if got := m.TransformVec3(Vec3{0, 2, 0}); !nearVec(got, Vec3{0, 0, -5}, 1e-5) {
		t.Errorf("target maps to %v, want (0, 0, -5)", got)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Compose(Vec3{1, 2, 3}, QuatFromEuler(10, 20, 30), Vec3{2, 2, 2})
	p := Vec3{4, -5, 6}

	back := m.Inverse().TransformVec3(m.TransformVec3(p))
	if !nearVec(back, p, 1e-3) {
		t.Errorf("Inverse round trip: got %v, want %v", back, p)
	}
}

func TestInverseOfSingularIsIdentity(t *testing.T) {
	if got := Scale(1, 0, 1).Inverse(); got != Identity() {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}

func TestComposeTranslation(t *testing.T) {
	m := Compose(Vec3{5, 6, 7}, QuatIdentity(), Vec3{1, 1, 1})
	if m.Translation() != (Vec3{5, 6, 7}) {
		t.Errorf("Translation = %v", m.Translation())
	}
	d := m.TransformDirection(Vec3{1, 0, 0})
	if d != (Vec3{1, 0, 0}) {
		t.Errorf("TransformDirection should ignore translation, got %v", d)
	}
}

func TestViewProjectionInverseUnprojects(t *testing.T) {
	view := LookAt(Vec3{0, 0, 5}, Vec3{}, Vec3{0, 1, 0})
	proj := Perspective(float32(math.Pi/3), 1, 0.1, 100)
	inv := proj.Mul(view).Inverse()

	// Centre of the near plane should unproject onto the view axis.
	p := inv.MulVec4(Vec4{0, 0, -1, 1})
	x, y := p[0]/p[3], p[1]/p[3]
	if abs(x) > 1e-3 || abs(y) > 1e-3 {
		t.Errorf("near plane centre unprojected off-axis: (%v, %v)", x, y)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
