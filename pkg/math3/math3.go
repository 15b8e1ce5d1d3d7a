// Package math3 provides the float32 spatial math used by the terrain
// engine: integer lattice coordinates, axis-aligned boxes, spheres and
// segments. Vector and matrix types come from mgl32 so callers can pass
// engine values straight to rendering code.
package math3

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a world-space position or direction.
type Vec3 = mgl32.Vec3

// Int3 is a voxel or chunk coordinate on the signed integer lattice.
type Int3 struct {
	X, Y, Z int32
}

// Add returns i + o componentwise.
func (i Int3) Add(o Int3) Int3 {
	return Int3{i.X + o.X, i.Y + o.Y, i.Z + o.Z}
}

// Sub returns i - o componentwise.
func (i Int3) Sub(o Int3) Int3 {
	return Int3{i.X - o.X, i.Y - o.Y, i.Z - o.Z}
}

// Mul returns i scaled by s.
func (i Int3) Mul(s int32) Int3 {
	return Int3{i.X * s, i.Y * s, i.Z * s}
}

// Vec3 converts to a float vector.
func (i Int3) Vec3() Vec3 {
	return Vec3{float32(i.X), float32(i.Y), float32(i.Z)}
}

// Floor3 returns the integer lattice cell containing v.
func Floor3(v Vec3) Int3 {
	return Int3{
		int32(math32.Floor(v.X())),
		int32(math32.Floor(v.Y())),
		int32(math32.Floor(v.Z())),
	}
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// SafeNormalize returns v scaled to unit length, or the zero vector when v
// is too short to normalize meaningfully.
func SafeNormalize(v Vec3) Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// IsFinite reports whether every component of v is a real number.
func IsFinite(v Vec3) bool {
	for i := 0; i < 3; i++ {
		if math32.IsNaN(v[i]) || math32.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
