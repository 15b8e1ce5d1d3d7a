package math3

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max Vec3
}

// AABBFromSphere returns the tightest box containing s.
func AABBFromSphere(s Sphere) AABB {
	r := Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// Center returns the midpoint of the box.
func (a AABB) Center() Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// HalfSize returns the box extents from center to corner.
func (a AABB) HalfSize() Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Expand grows the box by d on every side.
func (a AABB) Expand(d float32) AABB {
	e := Vec3{d, d, d}
	return AABB{Min: a.Min.Sub(e), Max: a.Max.Add(e)}
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	var r AABB
	for i := 0; i < 3; i++ {
		r.Min[i] = math32.Min(a.Min[i], b.Min[i])
		r.Max[i] = math32.Max(a.Max[i], b.Max[i])
	}
	return r
}

// Intersects reports whether the two boxes overlap.
func (a AABB) Intersects(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Max[i] < b.Min[i] || b.Max[i] < a.Min[i] {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the box overlaps the sphere.
func (a AABB) IntersectsSphere(center Vec3, radius float32) bool {
	var d2 float32
	for i := 0; i < 3; i++ {
		c := center[i]
		if c < a.Min[i] {
			d := a.Min[i] - c
			d2 += d * d
		} else if c > a.Max[i] {
			d := c - a.Max[i]
			d2 += d * d
		}
	}
	return d2 <= radius*radius
}

// IntersectRayAABB returns the point where a ray from p along d enters the
// unit voxel cell at v. The ray is assumed to actually cross the cell;
// axes nearly parallel to the ray are skipped.
func IntersectRayAABB(p, d Vec3, v Int3) Vec3 {
	tmin := float32(0)
	vf := v.Vec3()
	for i := 0; i < 3; i++ {
		if math32.Abs(d[i]) < 0.001 {
			continue
		}
		ood := 1 / d[i]
		t1 := (vf[i] - p[i]) * ood
		t2 := (vf[i] + 1 - p[i]) * ood
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
	}
	return p.Add(d.Mul(tmin))
}
