// Package sdf composes signed distance primitives into the scalar field the
// terrain engine meshes and queries. Primitive distance evaluation and
// local-to-world transforms are provided by the github.com/deadsy/sdfx
// CAD library; this package adds blend operators, material attribution,
// the pending/committed edit model, and a per-chunk sample cache.
package sdf

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/regolith/pkg/math3"
)

// ShapeKind identifies the primitive variant of a Shape.
type ShapeKind uint8

const (
	KindBox ShapeKind = iota
	KindCylinder
	KindSphere
	KindHeightMap
)

// BlendOp is how a shape combines with the field accumulated from the
// shapes registered before it.
type BlendOp uint8

const (
	BlendUnion BlendOp = iota
	BlendSubtraction
	BlendIntersection
	BlendSmoothUnion
)

// shapeParams is the mutable part of a shape. Edits write a pending copy
// which is applied by World.CommitPending while no jobs are in flight.
type shapeParams struct {
	dimensions  math3.Vec3 // box extents; (radius,_,height) for cylinders; (radius,_,_) for spheres
	translation math3.Vec3
	rotation    math3.Vec3 // Euler degrees, applied X then Y then Z
	material    uint8
	blend       BlendOp
	smoothK     float32
}

// Shape is one primitive of the composed field. It is created and mutated
// through a World; the zero value is not usable.
type Shape struct {
	kind ShapeKind

	params  shapeParams
	pending *shapeParams

	solid sdf.SDF3     // transformed sdfx primitive, nil for height maps
	hm    *HeightField // height maps only

	aabb     math3.AABB
	aabbPrev math3.AABB
	dirty    bool
}

// Kind returns the primitive variant.
func (s *Shape) Kind() ShapeKind { return s.kind }

// AABB returns the shape's committed world bounds.
func (s *Shape) AABB() math3.AABB { return s.aabb }

// PrevAABB returns the world bounds as of the previous committed edit.
func (s *Shape) PrevAABB() math3.AABB { return s.aabbPrev }

// Material returns the committed material tag.
func (s *Shape) Material() uint8 { return s.params.material }

// Blend returns the committed blend operator.
func (s *Shape) Blend() BlendOp { return s.params.blend }

// Translation returns the committed world translation.
func (s *Shape) Translation() math3.Vec3 { return s.params.translation }

// edit returns the pending parameter copy, creating it on first edit.
func (s *Shape) edit() *shapeParams {
	if s.pending == nil {
		p := s.params
		s.pending = &p
	}
	return s.pending
}

// rebuild reconstructs the transformed sdfx solid and world AABB from the
// committed parameters.
func (s *Shape) rebuild() {
	p := &s.params

	switch s.kind {
	case KindBox, KindCylinder, KindSphere:
		prim := s.buildPrimitive()
		m := sdf.Translate3d(v3.Vec{
			X: float64(p.translation.X()),
			Y: float64(p.translation.Y()),
			Z: float64(p.translation.Z()),
		})
		if p.rotation != (math3.Vec3{}) {
			xRad := float64(p.rotation.X()) * math.Pi / 180
			yRad := float64(p.rotation.Y()) * math.Pi / 180
			zRad := float64(p.rotation.Z()) * math.Pi / 180
			m = m.Mul(sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad).Mul(sdf.RotateX(xRad))))
		}
		s.solid = sdf.Transform3D(prim, m)

		bb := s.solid.BoundingBox()
		s.aabb = math3.AABB{
			Min: math3.Vec3{float32(bb.Min.X), float32(bb.Min.Y), float32(bb.Min.Z)},
			Max: math3.Vec3{float32(bb.Max.X), float32(bb.Max.Y), float32(bb.Max.Z)},
		}

	case KindHeightMap:
		size := s.hm.Size()
		s.aabb = math3.AABB{
			Min: p.translation,
			Max: p.translation.Add(size),
		}

	default:
		panic(fmt.Sprintf("sdf: unknown shape kind %d", s.kind))
	}
}

// buildPrimitive creates the untransformed sdfx solid for the shape. The
// sdfx constructors only fail on non-positive dimensions; the World setters
// do not check dimensions, so such a failure panics here.
func (s *Shape) buildPrimitive() sdf.SDF3 {
	p := &s.params
	switch s.kind {
	case KindBox:
		prim, err := sdf.Box3D(v3.Vec{
			X: float64(p.dimensions.X()),
			Y: float64(p.dimensions.Y()),
			Z: float64(p.dimensions.Z()),
		}, 0)
		if err != nil {
			panic(fmt.Sprintf("sdfx.Box3D: %v", err))
		}
		return prim
	case KindCylinder:
		prim, err := sdf.Cylinder3D(float64(p.dimensions.Z()), float64(p.dimensions.X()), 0)
		if err != nil {
			panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
		}
		return prim
	case KindSphere:
		prim, err := sdf.Sphere3D(float64(p.dimensions.X()))
		if err != nil {
			panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
		}
		return prim
	}
	panic(fmt.Sprintf("sdf: kind %d has no sdfx primitive", s.kind))
}

// value evaluates the shape's own signed distance at p, negative inside.
func (s *Shape) value(p math3.Vec3) float32 {
	if s.kind == KindHeightMap {
		local := p.Sub(s.params.translation)
		return local.Z() - s.hm.Sample(local.X(), local.Y())
	}
	return float32(s.solid.Evaluate(v3.Vec{
		X: float64(p.X()),
		Y: float64(p.Y()),
		Z: float64(p.Z()),
	}))
}
