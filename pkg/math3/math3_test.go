package math3

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestFloor3(t *testing.T) {
	cases := []struct {
		in   Vec3
		want Int3
	}{
		{Vec3{0.5, 0.5, 0.5}, Int3{0, 0, 0}},
		{Vec3{-0.5, -1.0, -1.5}, Int3{-1, -1, -2}},
		{Vec3{31.99, 32.0, 32.01}, Int3{31, 32, 32}},
	}
	for _, c := range cases {
		if got := Floor3(c.in); got != c.want {
			t.Errorf("Floor3(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSafeNormalize(t *testing.T) {
	v := SafeNormalize(Vec3{3, 0, 4})
	if math32.Abs(v.Len()-1) > 1e-6 {
		t.Errorf("normalized length = %f", v.Len())
	}
	if SafeNormalize(Vec3{}) != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
	if SafeNormalize(Vec3{1e-20, 0, 0}) != (Vec3{}) {
		t.Error("tiny vector should normalize to zero")
	}
}

func TestAABBIntersects(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{2, 2, 2}}
	b := AABB{Min: Vec3{1, 1, 1}, Max: Vec3{3, 3, 3}}
	c := AABB{Min: Vec3{5, 0, 0}, Max: Vec3{6, 1, 1}}

	if !a.Intersects(b) || !b.Intersects(a) {
		t.Error("overlapping boxes should intersect")
	}
	if a.Intersects(c) {
		t.Error("disjoint boxes should not intersect")
	}
	if !a.Intersects(a) {
		t.Error("box should intersect itself")
	}
}

func TestAABBExpandUnion(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	e := a.Expand(2)
	if e.Min != (Vec3{-2, -2, -2}) || e.Max != (Vec3{3, 3, 3}) {
		t.Errorf("expand = %v", e)
	}

	b := AABB{Min: Vec3{-1, 4, 0}, Max: Vec3{0.5, 5, 2}}
	u := a.Union(b)
	if u.Min != (Vec3{-1, 0, 0}) || u.Max != (Vec3{1, 5, 2}) {
		t.Errorf("union = %v", u)
	}
}

func TestAABBIntersectsSphere(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	if !a.IntersectsSphere(Vec3{2, 0.5, 0.5}, 1.5) {
		t.Error("sphere overlapping the box face should intersect")
	}
	if a.IntersectsSphere(Vec3{3, 3, 3}, 1) {
		t.Error("distant sphere should not intersect")
	}
}

func TestSphereRaycast(t *testing.T) {
	s := Sphere{Center: Vec3{0, 0, 0}, Radius: 2}

	tHit, ok := s.Raycast(Vec3{-10, 0, 0}, Vec3{1, 0, 0})
	if !ok || math32.Abs(tHit-8) > 1e-4 {
		t.Errorf("head-on entry = %f, %v; want 8", tHit, ok)
	}

	if _, ok := s.Raycast(Vec3{-10, 5, 0}, Vec3{1, 0, 0}); ok {
		t.Error("ray passing above should miss")
	}
	if _, ok := s.Raycast(Vec3{-10, 0, 0}, Vec3{-1, 0, 0}); ok {
		t.Error("ray pointing away should miss")
	}

	// Origin inside the sphere clamps to zero.
	tHit, ok = s.Raycast(Vec3{0.5, 0, 0}, Vec3{1, 0, 0})
	if !ok || tHit != 0 {
		t.Errorf("inside origin = %f, %v; want 0, true", tHit, ok)
	}
}

func TestSegmentMinDistance(t *testing.T) {
	s := Segment{A: Vec3{0, 0, 0}, B: Vec3{10, 0, 0}}

	if d := s.MinDistance(Vec3{5, 3, 0}); math32.Abs(d-3) > 1e-5 {
		t.Errorf("mid distance = %f, want 3", d)
	}
	if d := s.MinDistance(Vec3{-4, 3, 0}); math32.Abs(d-5) > 1e-5 {
		t.Errorf("before-start distance = %f, want 5", d)
	}
	if d := s.MinDistance(Vec3{14, 0, 3}); math32.Abs(d-5) > 1e-5 {
		t.Errorf("past-end distance = %f, want 5", d)
	}

	point := Segment{A: Vec3{1, 1, 1}, B: Vec3{1, 1, 1}}
	if d := point.MinDistance(Vec3{1, 1, 3}); math32.Abs(d-2) > 1e-5 {
		t.Errorf("degenerate segment distance = %f, want 2", d)
	}
}

func TestIntersectRayAABB(t *testing.T) {
	// Straight down into the top face of voxel (3, 4, 5).
	p := IntersectRayAABB(Vec3{3.5, 4.5, 20}, Vec3{0, 0, -30}, Int3{3, 4, 5})
	if math32.Abs(p.Z()-6) > 1e-4 || math32.Abs(p.X()-3.5) > 1e-4 {
		t.Errorf("entry point = %v, want (3.5, 4.5, 6)", p)
	}

	// Entry through a side face along +x.
	p = IntersectRayAABB(Vec3{-2, 0.5, 0.5}, Vec3{4, 0, 0}, Int3{0, 0, 0})
	if math32.Abs(p.X()) > 1e-4 {
		t.Errorf("side entry = %v, want x=0", p)
	}
}
