package terrain

import (
	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
)

// ceil3 returns the exclusive upper lattice corner of a box maximum.
func ceil3(v math3.Vec3) math3.Int3 {
	return math3.Int3{
		X: int32(math32.Ceil(v.X())),
		Y: int32(math32.Ceil(v.Y())),
		Z: int32(math32.Ceil(v.Z())),
	}
}

// SweepSphere casts a moving sphere along ray against the surface
// vertices in the swept volume and returns the first contact.
func (t *Terrain) SweepSphere(sphere math3.Sphere, ray math3.Vec3) (SweepResult, bool) {
	sphereEnd := sphere
	sphereEnd.Center = sphereEnd.Center.Add(ray)

	bounds := math3.AABBFromSphere(sphere).Union(math3.AABBFromSphere(sphereEnd))
	min := math3.Floor3(bounds.Min)
	max := ceil3(bounds.Max)

	travelSeg := math3.Segment{A: sphere.Center, B: sphere.Center.Add(ray)}

	var best SweepResult
	anyHit := false
	tMin := ray.Len()
	for z := min.Z; z < max.Z; z++ {
		for y := min.Y; y < max.Y; y++ {
			for x := min.X; x < max.X; x++ {
				v := t.getVertex(x, y, z)
				if v == nil {
					continue
				}

				vertex := v.Position
				if travelSeg.MinDistance(vertex) > sphere.Radius {
					continue
				}
				if ray.Dot(vertex.Sub(sphere.Center)) <= 0 {
					continue
				}

				// Entry time of the vertex into the moving sphere, as a
				// ray from the vertex back against the travel direction.
				if tHit, ok := sphere.Raycast(vertex, ray.Mul(-1)); ok && tHit <= tMin {
					anyHit = true
					tMin = tHit
					best = SweepResult{
						Distance: tHit,
						Normal:   math3.SafeNormalize(v.Normal),
						Position: vertex,
					}
				}
			}
		}
	}
	return best, anyHit
}

// PushOutSphere resolves a static sphere out of the surface: the normals
// of all surface vertices inside the sphere are summed into a push
// direction, then the sphere moves far enough along it to clear the
// deepest vertex. Returns false when nothing intersects.
func (t *Terrain) PushOutSphere(sphere math3.Sphere) (math3.Vec3, bool) {
	bounds := math3.AABBFromSphere(sphere)
	min := math3.Floor3(bounds.Min)
	max := ceil3(bounds.Max)

	var pushOutDir math3.Vec3
	for z := min.Z; z < max.Z; z++ {
		for y := min.Y; y < max.Y; y++ {
			for x := min.X; x < max.X; x++ {
				v := t.getVertex(x, y, z)
				if v == nil {
					continue
				}
				centerToVert := v.Position.Sub(sphere.Center)
				if centerToVert.Dot(centerToVert)-sphere.Radius*sphere.Radius > 0 {
					continue
				}
				pushOutDir = pushOutDir.Add(math3.SafeNormalize(v.Normal))
			}
		}
	}
	if pushOutDir == (math3.Vec3{}) {
		return math3.Vec3{}, false
	}
	pushOutDir = math3.SafeNormalize(pushOutDir)

	var pushOutLength float32
	for z := min.Z; z < max.Z; z++ {
		for y := min.Y; y < max.Y; y++ {
			for x := min.X; x < max.X; x++ {
				v := t.getVertex(x, y, z)
				if v == nil {
					continue
				}
				centerToVert := v.Position.Sub(sphere.Center)
				c := centerToVert.Dot(centerToVert) - sphere.Radius*sphere.Radius
				if c > 0 {
					continue
				}

				normal := math3.SafeNormalize(v.Normal)
				b := centerToVert.Dot(normal)
				surfaceToVert := normal.Mul(b + math32.Sqrt(b*b-c))
				// Projected clearance along the combined push direction.
				if t2 := pushOutDir.Dot(surfaceToVert); t2 > pushOutLength {
					pushOutLength = t2
				}
			}
		}
	}

	return pushOutDir.Mul(pushOutLength), true
}
