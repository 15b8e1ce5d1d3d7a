package math3

import "github.com/chewxy/math32"

// Sphere is a world-space ball.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Raycast returns the entry distance of a ray from origin along dir into
// the sphere. dir does not need to be normalized; t is measured in units
// of |dir| normalized. Returns false when the ray misses or points away.
func (s Sphere) Raycast(origin, dir Vec3) (float32, bool) {
	d := SafeNormalize(dir)
	if d == (Vec3{}) {
		return 0, false
	}
	m := origin.Sub(s.Center)
	b := m.Dot(d)
	c := m.Dot(m) - s.Radius*s.Radius
	if c > 0 && b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math32.Sqrt(disc)
	if t < 0 {
		t = 0
	}
	return t, true
}

// Segment is the line segment between A and B.
type Segment struct {
	A, B Vec3
}

// MinDistance returns the distance from p to the closest point on the
// segment.
func (s Segment) MinDistance(p Vec3) float32 {
	ab := s.B.Sub(s.A)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return p.Sub(s.A).Len()
	}
	t := p.Sub(s.A).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Sub(s.A.Add(ab.Mul(t))).Len()
}
