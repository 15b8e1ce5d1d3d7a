package sdf

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
)

// derivativeEpsilon is the central-difference step used for gradients, in
// voxels. Large enough to stay out of interpolation noise, small enough to
// resolve voxel-scale features.
const derivativeEpsilon = 0.2

// World composes registered shapes into a single signed distance field.
//
// Edits (shape creation, parameter changes, removal) accumulate as pending
// state and only take effect on CommitPending, which the terrain scheduler
// calls while no extraction jobs are in flight. Reads (Value, Derivative,
// Material) see only committed state, so extraction workers can evaluate
// the field concurrently with buffered edits.
type World struct {
	shapes []*Shape

	pendingAdd    []*Shape
	pendingRemove map[*Shape]bool
	removedAABBs  []math3.AABB
	hasPending    bool
}

// NewWorld returns an empty field. With no shapes registered the field is
// a test surface: a ground plane at z=6 with a small sphere carved out.
func NewWorld() *World {
	return &World{pendingRemove: make(map[*Shape]bool)}
}

// Shapes returns the committed shape list in registration order. The
// returned slice must not be modified.
func (w *World) Shapes() []*Shape { return w.shapes }

// AddBox registers a box primitive with the given extents. The shape is
// pending until the next commit.
func (w *World) AddBox(extents math3.Vec3) *Shape {
	return w.add(&Shape{kind: KindBox, params: shapeParams{dimensions: extents}})
}

// AddCylinder registers a cylinder primitive along local Z.
func (w *World) AddCylinder(radius, height float32) *Shape {
	return w.add(&Shape{kind: KindCylinder, params: shapeParams{dimensions: math3.Vec3{radius, 0, height}}})
}

// AddSphere registers a sphere primitive.
func (w *World) AddSphere(radius float32) *Shape {
	return w.add(&Shape{kind: KindSphere, params: shapeParams{dimensions: math3.Vec3{radius, 0, 0}}})
}

// AddHeightMap registers a height-map primitive anchored at its minimum
// corner.
func (w *World) AddHeightMap(hf *HeightField) *Shape {
	return w.add(&Shape{kind: KindHeightMap, hm: hf})
}

func (w *World) add(s *Shape) *Shape {
	s.rebuild()
	s.aabbPrev = s.aabb
	w.pendingAdd = append(w.pendingAdd, s)
	w.hasPending = true
	return s
}

// RemoveShape unregisters a shape on the next commit. Its last committed
// bounds are reported through TakeRemovedAABBs so the affected chunks can
// be regenerated.
func (w *World) RemoveShape(s *Shape) {
	w.pendingRemove[s] = true
	w.hasPending = true
}

// SetTranslation buffers a new world translation for the shape.
func (w *World) SetTranslation(s *Shape, t math3.Vec3) {
	s.edit().translation = t
	w.hasPending = true
}

// SetRotation buffers new Euler rotation angles (degrees) for the shape.
// Height maps do not rotate.
func (w *World) SetRotation(s *Shape, r math3.Vec3) {
	if s.kind == KindHeightMap {
		panic("sdf: height map shapes cannot be rotated")
	}
	s.edit().rotation = r
	w.hasPending = true
}

// SetDimensions buffers new primitive dimensions for the shape.
func (w *World) SetDimensions(s *Shape, d math3.Vec3) {
	s.edit().dimensions = d
	w.hasPending = true
}

// SetMaterial buffers a new material tag (0..3) for the shape.
func (w *World) SetMaterial(s *Shape, m uint8) {
	if m > 3 {
		panic(fmt.Sprintf("sdf: material %d out of range", m))
	}
	s.edit().material = m
	w.hasPending = true
}

// SetBlend buffers a new blend operator. k is the smoothing width and is
// only meaningful for BlendSmoothUnion.
func (w *World) SetBlend(s *Shape, op BlendOp, k float32) {
	p := s.edit()
	p.blend = op
	p.smoothK = k
	w.hasPending = true
}

// HasPending reports whether any edits are waiting for a commit.
func (w *World) HasPending() bool { return w.hasPending }

// CommitPending applies all buffered edits. The caller must guarantee no
// field reader is running concurrently; the terrain scheduler only calls
// this while its worker pool is fully idle.
func (w *World) CommitPending() {
	if !w.hasPending {
		return
	}

	for _, s := range w.pendingAdd {
		if w.pendingRemove[s] {
			delete(w.pendingRemove, s)
			continue
		}
		s.applyPending()
		s.dirty = true
		w.shapes = append(w.shapes, s)
	}
	w.pendingAdd = w.pendingAdd[:0]

	if len(w.pendingRemove) > 0 {
		live := w.shapes[:0]
		for _, s := range w.shapes {
			if w.pendingRemove[s] {
				w.removedAABBs = append(w.removedAABBs, s.aabbPrev.Union(s.aabb))
				delete(w.pendingRemove, s)
				continue
			}
			live = append(live, s)
		}
		w.shapes = live
	}

	for _, s := range w.shapes {
		if s.pending != nil {
			s.applyPending()
			s.dirty = true
		}
	}

	w.hasPending = false
}

// applyPending moves the pending parameters into place and rebuilds the
// solid and AABB. The previous AABB is left alone so dirty propagation can
// cover both the old and new footprint.
func (s *Shape) applyPending() {
	if s.pending != nil {
		s.params = *s.pending
		s.pending = nil
	}
	s.rebuild()
}

// Dirty reports whether the shape changed since ClearDirty.
func (s *Shape) Dirty() bool { return s.dirty }

// ClearDirty acknowledges a committed edit: the dirty flag is cleared and
// the previous AABB advances to the current one.
func (s *Shape) ClearDirty() {
	s.dirty = false
	s.aabbPrev = s.aabb
}

// TakeRemovedAABBs returns the bounds of shapes removed by the last
// commits and resets the list.
func (w *World) TakeRemovedAABBs() []math3.AABB {
	r := w.removedAABBs
	w.removedAABBs = nil
	return r
}

// Value evaluates the committed field at p. Negative inside, positive
// outside, never NaN.
func (w *World) Value(p math3.Vec3) float32 {
	v, _ := w.evaluate(p)
	if math32.IsNaN(v) {
		panic(fmt.Sprintf("sdf: field value is NaN at %v", p))
	}
	return v
}

// Material returns the material tag of the shape dominating the field
// at p.
func (w *World) Material(p math3.Vec3) uint8 {
	_, m := w.evaluate(p)
	return m
}

// evaluate folds every committed shape through its blend operator in
// registration order, tracking which shape's contribution dominates the
// result. Ties go to the shape registered later.
func (w *World) evaluate(p math3.Vec3) (float32, uint8) {
	if len(w.shapes) == 0 {
		return defaultField(p), 0
	}

	var acc float32 = math32.MaxFloat32
	material := uint8(0)
	for _, s := range w.shapes {
		v := s.value(p)
		switch s.params.blend {
		case BlendUnion:
			if v <= acc {
				material = s.params.material
			}
			acc = math32.Min(acc, v)
		case BlendSubtraction:
			if -v >= acc {
				material = s.params.material
			}
			acc = math32.Max(acc, -v)
		case BlendIntersection:
			if v >= acc {
				material = s.params.material
			}
			acc = math32.Max(acc, v)
		case BlendSmoothUnion:
			if v <= acc {
				material = s.params.material
			}
			acc = smoothMin(acc, v, s.params.smoothK)
		}
	}
	return acc, material
}

// defaultField is the shape-free test surface: a ground plane at z=6 with
// a sphere of radius 3.5 at (5,5,5) carved out.
func defaultField(p math3.Vec3) float32 {
	plane := p.Z() - 6
	sphere := p.Sub(math3.Vec3{5, 5, 5}).Len() - 3.5
	return math32.Max(plane, -sphere)
}

// smoothMin is the polynomial smooth minimum with blend width k.
func smoothMin(a, b, k float32) float32 {
	if k <= 0 {
		return math32.Min(a, b)
	}
	h := math32.Max(k-math32.Abs(a-b), 0) / k
	return math32.Min(a, b) - h*h*k*0.25
}

// Derivative estimates the outward field gradient at p. Two one-sided
// central-difference estimates are formed, each safe-normalized, and their
// sum renormalized; averaging the two sides reduces bias this close to the
// surface.
func (w *World) Derivative(p math3.Vec3) math3.Vec3 {
	base := w.Value(p)

	var normal0 math3.Vec3
	for i := 0; i < 3; i++ {
		nt := p
		nt[i] += derivativeEpsilon
		normal0[i] = w.Value(nt)
	}
	normal0 = math3.SafeNormalize(normal0.Sub(math3.Vec3{base, base, base}))

	var normal1 math3.Vec3
	for i := 0; i < 3; i++ {
		nt := p
		nt[i] -= derivativeEpsilon
		normal1[i] = w.Value(nt)
	}
	normal1 = math3.SafeNormalize(math3.Vec3{base, base, base}.Sub(normal1))

	return math3.SafeNormalize(normal0.Add(normal1))
}
