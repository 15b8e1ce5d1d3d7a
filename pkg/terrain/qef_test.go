package terrain

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
)

func TestQEFSolversAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(12)
		ps := make([]math3.Vec3, n)
		ns := make([]math3.Vec3, n)
		for i := 0; i < n; i++ {
			ps[i] = math3.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
			ns[i] = math3.SafeNormalize(math3.Vec3{
				rng.Float32()*2 - 1,
				rng.Float32()*2 - 1,
				rng.Float32()*2 - 1,
			})
			if ns[i] == (math3.Vec3{}) {
				ns[i] = math3.Vec3{0, 0, 1}
			}
		}

		a := solveQEFScalar(ps, ns)
		b := solveQEFVec4(ps, ns)
		if a.Sub(b).Len() > 1e-4 {
			t.Fatalf("trial %d: scalar %v vs wide %v", trial, a, b)
		}
	}
}

func TestQEFConvergesOntoPlane(t *testing.T) {
	// All crossings on the plane z = 0.3 with upward normals; the
	// minimizer must land on the plane.
	ps := []math3.Vec3{
		{0.1, 0.2, 0.3},
		{0.9, 0.4, 0.3},
		{0.5, 0.8, 0.3},
	}
	ns := []math3.Vec3{
		{0, 0, 1},
		{0, 0, 1},
		{0, 0, 1},
	}

	c := solveQEF(ps, ns)
	if math32.Abs(c.Z()-0.3) > 1e-4 {
		t.Errorf("solution z = %f, want 0.3", c.Z())
	}
}

func TestQEFCornerIntersection(t *testing.T) {
	// Two orthogonal planes x=0.25 and z=0.75; the minimizer should sit
	// on both.
	ps := []math3.Vec3{
		{0.25, 0.5, 0.1},
		{0.25, 0.2, 0.9},
		{0.6, 0.5, 0.75},
		{0.1, 0.8, 0.75},
	}
	ns := []math3.Vec3{
		{1, 0, 0},
		{1, 0, 0},
		{0, 0, 1},
		{0, 0, 1},
	}

	c := solveQEF(ps, ns)
	if math32.Abs(c.X()-0.25) > 1e-3 || math32.Abs(c.Z()-0.75) > 1e-3 {
		t.Errorf("solution = %v, want x=0.25 z=0.75", c)
	}
}
