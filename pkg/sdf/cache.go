package sdf

import (
	"fmt"

	"github.com/chazu/regolith/pkg/math3"
)

// Boundary is the halo, in voxels, sampled around a chunk so that
// trilinear interpolation and gradient estimation stay inside the cache
// for every position an extractor can ask about. It also pads dirty
// regions so edits refresh the chunks whose halo they touch.
const Boundary = 2

// SkipCache bypasses the sample grid and forwards every lookup to the
// field directly. Extraction output must be identical up to interpolation
// error; the switch exists to isolate cache bugs.
var SkipCache = false

// Cache amortizes field evaluation during chunk extraction: the field is
// sampled once at every integer position of a halo-extended cube, then all
// lookups interpolate the stored values. A Cache is owned by a single
// extraction job and reused across jobs.
type Cache struct {
	world *World

	chunkSize int32
	dim       int32 // chunkSize + 2*Boundary + 1, both halo fenceposts included
	values    []float32

	offi math3.Int3
	offf math3.Vec3
}

// NewCache allocates a cache for chunks of the given side length.
func NewCache(chunkSize int32) *Cache {
	dim := chunkSize + 2*Boundary + 1
	return &Cache{
		chunkSize: chunkSize,
		dim:       dim,
		values:    make([]float32, dim*dim*dim),
	}
}

// Generate fills the cache for the chunk at chunkPos by sampling w at
// every integer position of the halo-extended cube.
func (c *Cache) Generate(chunkPos math3.Int3, w *World) {
	c.world = w

	c.offi = math3.Int3{X: Boundary, Y: Boundary, Z: Boundary}.Sub(chunkPos.Mul(c.chunkSize))
	c.offf = c.offi.Vec3()

	if SkipCache {
		return
	}

	offset := chunkPos.Mul(c.chunkSize).Sub(math3.Int3{X: Boundary, Y: Boundary, Z: Boundary})
	i := 0
	for z := int32(0); z < c.dim; z++ {
		for y := int32(0); y < c.dim; y++ {
			for x := int32(0); x < c.dim; x++ {
				pos := math3.Vec3{
					float32(offset.X + x),
					float32(offset.Y + y),
					float32(offset.Z + z),
				}
				c.values[i] = w.Value(pos)
				i++
			}
		}
	}
}

// ValueInt returns the field value at an integer world position inside
// the cached cube.
func (c *Cache) ValueInt(pos math3.Int3) float32 {
	if SkipCache {
		return c.world.Value(pos.Vec3())
	}
	return c.at(pos.Add(c.offi))
}

// Value returns the trilinearly interpolated field value at a world
// position inside the cached cube.
func (c *Cache) Value(pos math3.Vec3) float32 {
	if SkipCache {
		return c.world.Value(pos)
	}

	p := pos.Add(c.offf)
	pi := math3.Floor3(p)
	fx := p.X() - float32(pi.X)
	fy := p.Y() - float32(pi.Y)
	fz := p.Z() - float32(pi.Z)

	v000 := c.at(pi)
	v100 := c.at(pi.Add(math3.Int3{X: 1}))
	v010 := c.at(pi.Add(math3.Int3{Y: 1}))
	v110 := c.at(pi.Add(math3.Int3{X: 1, Y: 1}))
	v001 := c.at(pi.Add(math3.Int3{Z: 1}))
	v101 := c.at(pi.Add(math3.Int3{X: 1, Z: 1}))
	v011 := c.at(pi.Add(math3.Int3{Y: 1, Z: 1}))
	v111 := c.at(pi.Add(math3.Int3{X: 1, Y: 1, Z: 1}))

	x0 := math3.Lerp(v000, v100, fx)
	x1 := math3.Lerp(v010, v110, fx)
	x2 := math3.Lerp(v001, v101, fx)
	x3 := math3.Lerp(v011, v111, fx)
	y0 := math3.Lerp(x0, x1, fy)
	y1 := math3.Lerp(x2, x3, fy)
	return math3.Lerp(y0, y1, fz)
}

// Derivative estimates the field gradient from cached samples using the
// same two-sided rule as World.Derivative.
func (c *Cache) Derivative(p math3.Vec3) math3.Vec3 {
	if SkipCache {
		return c.world.Derivative(p)
	}

	base := c.Value(p)

	var normal0 math3.Vec3
	for i := 0; i < 3; i++ {
		nt := p
		nt[i] += derivativeEpsilon
		normal0[i] = c.Value(nt)
	}
	normal0 = math3.SafeNormalize(normal0.Sub(math3.Vec3{base, base, base}))

	var normal1 math3.Vec3
	for i := 0; i < 3; i++ {
		nt := p
		nt[i] -= derivativeEpsilon
		normal1[i] = c.Value(nt)
	}
	normal1 = math3.SafeNormalize(math3.Vec3{base, base, base}.Sub(normal1))

	return math3.SafeNormalize(normal0.Add(normal1))
}

// Material samples the material tag from the underlying field; materials
// are not cached.
func (c *Cache) Material(p math3.Vec3) uint8 {
	return c.world.Material(p)
}

// at returns the stored sample at a cache-local position.
func (c *Cache) at(pos math3.Int3) float32 {
	if pos.X < 0 || pos.Y < 0 || pos.Z < 0 || pos.X >= c.dim || pos.Y >= c.dim || pos.Z >= c.dim {
		panic(fmt.Sprintf("sdf: cache lookup %v outside %d^3", pos, c.dim))
	}
	return c.values[pos.X+c.dim*(pos.Y+c.dim*pos.Z)]
}
