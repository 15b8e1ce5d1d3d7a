package terrain

import "github.com/chazu/regolith/pkg/math3"

// qefSolver positions one dual-contouring vertex from the surface
// crossings collected on a voxel's edges: it minimizes the summed squared
// point-to-plane distance to the (position, normal) pairs. The centroid
// seed, 0.5 relaxation factor and fixed ten iterations are part of the
// extraction contract; both implementations must agree to 1e-4.
type qefSolver func(ps, ns []math3.Vec3) math3.Vec3

// solveQEF is the active implementation. The lane-unrolled variant is the
// default; solveQEFScalar is the portable reference.
var solveQEF qefSolver = solveQEFVec4

// solveQEFScalar is the reference minimizer: seed at the centroid of the
// crossing points, then relax toward each crossing plane in turn.
func solveQEFScalar(ps, ns []math3.Vec3) math3.Vec3 {
	var c math3.Vec3
	for _, p := range ps {
		c = c.Add(p)
	}
	c = c.Mul(1 / float32(len(ps)))

	for i := 0; i < 10; i++ {
		for j := range ps {
			d := ns[j].Dot(ps[j].Sub(c))
			c = c.Add(ns[j].Mul(d * 0.5))
		}
	}
	return c
}

// lane4 is a four-wide float vector; the fourth lane stays zero. The
// arithmetic mirrors solveQEFScalar exactly, laid out the way a 128-bit
// SIMD unit consumes it, so both variants produce identical results.
type lane4 [4]float32

func load4(v math3.Vec3) lane4 { return lane4{v[0], v[1], v[2], 0} }

func (a lane4) add(b lane4) lane4 {
	return lane4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a lane4) sub(b lane4) lane4 {
	return lane4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

func (a lane4) scale(s float32) lane4 {
	return lane4{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

func (a lane4) dot(b lane4) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// solveQEFVec4 is the lane-unrolled minimizer.
func solveQEFVec4(ps, ns []math3.Vec3) math3.Vec3 {
	var c lane4
	for _, p := range ps {
		c = c.add(load4(p))
	}
	c = c.scale(1 / float32(len(ps)))

	for i := 0; i < 10; i++ {
		for j := range ps {
			p := load4(ps[j])
			n := load4(ns[j])
			d := n.dot(p.sub(c))
			c = c.add(n.scale(d * 0.5))
		}
	}
	return math3.Vec3{c[0], c[1], c[2]}
}
