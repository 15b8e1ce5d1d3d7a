package terrain

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
)

// GetVoxel classifies the voxel at integer world coordinates. Coordinates
// in chunks that were never generated read as exterior; chunks pending
// generation read as unloaded.
func (t *Terrain) GetVoxel(x, y, z int32) Block {
	chunkPos, localPos := WorldToChunk(math3.Int3{X: x, Y: y, Z: z})
	ci := ChunkIndex(chunkPos)

	switch t.store.Count(ci) {
	case CountEmpty:
		return BlockExterior
	case CountDirty:
		return BlockUnloaded
	case CountInterior:
		return BlockInterior
	}

	h := t.store.Get(ci)
	if h == InvalidHandle {
		return BlockUnloaded
	}
	return t.store.Chunk(h).t[localPos.X][localPos.Y][localPos.Z]
}

// GetVoxelAt classifies the voxel containing a world position.
func (t *Terrain) GetVoxelAt(p math3.Vec3) Block {
	v := math3.Floor3(p)
	return t.GetVoxel(v.X, v.Y, v.Z)
}

// GetCollision reports whether the voxel at integer world coordinates
// blocks movement, per the configured per-classification table.
func (t *Terrain) GetCollision(x, y, z int32) bool {
	return t.blockCollision[t.GetVoxel(x, y, z)]
}

// GetCollisionAt reports whether the voxel containing p blocks movement.
func (t *Terrain) GetCollisionAt(p math3.Vec3) bool {
	return t.blockCollision[t.GetVoxelAt(p)]
}

// Light returns the light level stored for the voxel at integer world
// coordinates, or the sky brightness where no chunk is loaded.
func (t *Terrain) Light(x, y, z int32) float32 {
	chunkPos, localPos := WorldToChunk(math3.Int3{X: x, Y: y, Z: z})
	h := t.store.GetAt(chunkPos)
	if h == InvalidHandle {
		return SkyBrightness
	}
	return t.store.Chunk(h).l[localPos.X][localPos.Y][localPos.Z]
}

// getVertex returns the dual-contouring vertex of the voxel at integer
// world coordinates, or nil when the voxel carries none.
func (t *Terrain) getVertex(x, y, z int32) *Vertex {
	chunkPos, localPos := WorldToChunk(math3.Int3{X: x, Y: y, Z: z})
	ci := ChunkIndex(chunkPos)

	switch t.store.Count(ci) {
	case CountEmpty, CountDirty, CountInterior:
		return nil
	}

	h := t.store.Get(ci)
	if h == InvalidHandle {
		return nil
	}
	chunk := t.store.Chunk(h)
	index := chunk.i[localPos.X][localPos.Y][localPos.Z]
	if index == InvalidIndex {
		return nil
	}
	return &chunk.vertices[index]
}

// dda walks integer voxels along a ray, advancing to the next grid plane
// in whichever axis crosses soonest. The out coordinates are the
// past-the-end cells derived from the ray extent; reaching one ends the
// walk. The world itself is unbounded.
type dda struct {
	x, y, z             int32
	stepX, stepY, stepZ int32
	outX, outY, outZ    int32
	tmax, tdelta        math3.Vec3
}

// newDDA prepares a walk from start along ray. Returns false for rays too
// short to traverse anything.
func newDDA(start, ray math3.Vec3) (dda, bool) {
	var d dda
	if ray.Dot(ray) < 0.001 {
		return d, false
	}
	dir := math3.SafeNormalize(ray)

	d.x = int32(math32.Floor(start.X()))
	d.y = int32(math32.Floor(start.Y()))
	d.z = int32(math32.Floor(start.Z()))

	var cb math3.Vec3
	if dir.X() > 0 {
		d.stepX = 1
		d.outX = int32(math32.Ceil(start.X() + ray.X()))
		cb[0] = float32(d.x + 1)
	} else {
		d.stepX = -1
		d.outX = int32(start.X()+ray.X()) - 1
		cb[0] = float32(d.x)
	}
	if dir.Y() > 0 {
		d.stepY = 1
		d.outY = int32(math32.Ceil(start.Y() + ray.Y()))
		cb[1] = float32(d.y + 1)
	} else {
		d.stepY = -1
		d.outY = int32(start.Y()+ray.Y()) - 1
		cb[1] = float32(d.y)
	}
	if dir.Z() > 0 {
		d.stepZ = 1
		d.outZ = int32(math32.Ceil(start.Z() + ray.Z()))
		cb[2] = float32(d.z + 1)
	} else {
		d.stepZ = -1
		d.outZ = int32(start.Z()+ray.Z()) - 1
		cb[2] = float32(d.z)
	}

	const farAway = 1000000
	if dir.X() != 0 {
		rxr := 1 / dir.X()
		d.tmax[0] = (cb.X() - start.X()) * rxr
		d.tdelta[0] = float32(d.stepX) * rxr
	} else {
		d.tmax[0] = farAway
	}
	if dir.Y() != 0 {
		ryr := 1 / dir.Y()
		d.tmax[1] = (cb.Y() - start.Y()) * ryr
		d.tdelta[1] = float32(d.stepY) * ryr
	} else {
		d.tmax[1] = farAway
	}
	if dir.Z() != 0 {
		rzr := 1 / dir.Z()
		d.tmax[2] = (cb.Z() - start.Z()) * rzr
		d.tdelta[2] = float32(d.stepZ) * rzr
	} else {
		d.tmax[2] = farAway
	}

	return d, true
}

// step advances one voxel; false means the walk left the ray's range.
func (d *dda) step() bool {
	if d.tmax.X() < d.tmax.Y() {
		if d.tmax.X() < d.tmax.Z() {
			d.x += d.stepX
			if d.x == d.outX {
				return false
			}
			d.tmax[0] += d.tdelta[0]
		} else {
			d.z += d.stepZ
			if d.z == d.outZ {
				return false
			}
			d.tmax[2] += d.tdelta[2]
		}
	} else {
		if d.tmax.Y() < d.tmax.Z() {
			d.y += d.stepY
			if d.y == d.outY {
				return false
			}
			d.tmax[1] += d.tdelta[1]
		} else {
			d.z += d.stepZ
			if d.z == d.outZ {
				return false
			}
			d.tmax[2] += d.tdelta[2]
		}
	}
	return true
}

// VoxelRaycast reports whether a ray from start hits a colliding voxel
// within its extent. The walk always advances at least minSteps voxels
// before a collision can stop it, so a source inside geometry can be
// skipped over.
func (t *Terrain) VoxelRaycast(start, ray math3.Vec3, minSteps int32) bool {
	d, ok := newDDA(start, ray)
	if !ok {
		return false
	}

	steps := int32(0)
	for !t.GetCollision(d.x, d.y, d.z) || steps < minSteps {
		steps++
		if !d.step() {
			return false
		}
	}
	return true
}

// missResult is the shared no-hit raycast result.
func missResult() RaycastResult {
	inf := math32.Inf(1)
	return RaycastResult{
		Type:     BlockExterior,
		Distance: inf,
		PosF:     math3.Vec3{inf, inf, inf},
		Normal:   math3.Vec3{inf, inf, inf},
	}
}

// RaycastFast walks the voxel grid to the first surface voxel and
// reconstructs the hit from the plane of that voxel's dual-contouring
// vertex. With allowSourceCollision false a surface voxel containing the
// ray origin is skipped. Cheaper than Raycast but limited to mesh
// resolution.
func (t *Terrain) RaycastFast(start, ray math3.Vec3, allowSourceCollision bool) RaycastResult {
	result := missResult()

	d, ok := newDDA(start, ray)
	if !ok {
		return result
	}

	for {
		result.Type = t.GetVoxel(d.x, d.y, d.z)
		if result.Type == BlockSurface && allowSourceCollision {
			break
		}
		if result.Type == BlockUnloaded {
			result.TouchedUnloaded = true
		}
		allowSourceCollision = true
		if !d.step() {
			return result
		}
	}

	result.Hit = true
	result.PosI = math3.Int3{X: d.x, Y: d.y, Z: d.z}

	vertex := t.getVertex(d.x, d.y, d.z)
	if vertex == nil {
		// Surface classification guarantees a vertex.
		panic(fmt.Sprintf("terrain: surface voxel %v has no vertex", result.PosI))
	}
	p := vertex.Position
	n := math3.SafeNormalize(vertex.Normal)
	r := math3.SafeNormalize(ray)
	dist := n.Dot(p.Sub(start)) / n.Dot(r)
	result.Distance = dist
	result.PosF = start.Add(r.Mul(dist))
	result.Normal = n
	return result
}

// Raycast walks the voxel grid treating surface voxels as candidates
// only: the field is sampled where the ray enters and leaves the voxel
// (each point pushed 1e-3 outward along the ray), and on a sign change the crossing is refined by midpoint search. The
// returned normal is the field gradient at the refined point.
func (t *Terrain) Raycast(start, ray math3.Vec3) RaycastResult {
	result := missResult()

	d, ok := newDDA(start, ray)
	if !ok {
		return result
	}

	for {
		result.Type = t.GetVoxel(d.x, d.y, d.z)
		if result.Type == BlockSurface {
			result.PosI = math3.Int3{X: d.x, Y: d.y, Z: d.z}

			nearPos := math3.IntersectRayAABB(start, ray, result.PosI)
			farPos := math3.IntersectRayAABB(start.Add(ray), ray.Mul(-1), result.PosI)
			// Sample a small margin outside both faces so a crossing that
			// lies exactly on a voxel face is not lost to rounding in the
			// entry and exit points.
			const faceMargin = 1e-3
			dir := math3.SafeNormalize(ray)
			nearPos = nearPos.Sub(dir.Mul(faceMargin))
			farPos = farPos.Add(dir.Mul(faceMargin))
			nearValue := t.world.Value(nearPos)
			farValue := t.world.Value(farPos)
			if nearValue*farValue <= 0 {
				// Orient the interval so nearPos stays on the outside.
				if nearValue < farValue {
					nearValue, farValue = farValue, nearValue
					nearPos, farPos = farPos, nearPos
				}

				var p math3.Vec3
				for i := 0; i < 10; i++ {
					p = nearPos.Mul(0.5).Add(farPos.Mul(0.5))
					if t.world.Value(p) < 0 {
						farPos = p
					} else {
						nearPos = p
					}
				}

				result.Hit = true
				result.Distance = p.Sub(start).Len()
				result.PosF = p
				result.Normal = t.world.Derivative(p)
				return result
			}
		} else if result.Type == BlockUnloaded {
			result.TouchedUnloaded = true
		}

		if !d.step() {
			return result
		}
	}
}
