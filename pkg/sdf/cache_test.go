package sdf

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
)

// testWorld builds a committed field with a flat ground slab whose top
// face sits at z=6.
func testWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld()
	s := w.AddBox(math3.Vec3{200, 200, 40})
	w.SetTranslation(s, math3.Vec3{0, 0, -14})
	w.CommitPending()
	return w
}

func TestCacheMatchesFieldAtIntegers(t *testing.T) {
	w := testWorld(t)
	c := NewCache(32)
	c.Generate(math3.Int3{X: 0, Y: 0, Z: 0}, w)

	for _, pos := range []math3.Int3{
		{X: 0, Y: 0, Z: 0},
		{X: 5, Y: 7, Z: 6},
		{X: 31, Y: 31, Z: 31},
		{X: -2, Y: -2, Z: -2},
		{X: 33, Y: 33, Z: 34},
	} {
		got := c.ValueInt(pos)
		want := w.Value(pos.Vec3())
		if got != want {
			t.Errorf("ValueInt(%v) = %f, want %f", pos, got, want)
		}
	}
}

func TestCacheTrilinearBlend(t *testing.T) {
	w := testWorld(t)
	c := NewCache(32)
	c.Generate(math3.Int3{X: 0, Y: 0, Z: 0}, w)

	// The slab field is linear in z near the surface, so interpolation
	// is exact there.
	for _, p := range []math3.Vec3{
		{10.5, 10.5, 6.5},
		{3.25, 17.75, 5.1},
		{20, 20, 4.75},
	} {
		got := c.Value(p)
		want := w.Value(p)
		if math32.Abs(got-want) > 1e-3 {
			t.Errorf("Value(%v) = %f, want %f", p, got, want)
		}
	}
}

func TestCacheDerivativeMatchesField(t *testing.T) {
	w := testWorld(t)
	c := NewCache(32)
	c.Generate(math3.Int3{X: 0, Y: 0, Z: 0}, w)

	p := math3.Vec3{10.3, 12.7, 6.0}
	got := c.Derivative(p)
	want := w.Derivative(p)
	if got.Dot(want) < 0.99 {
		t.Errorf("cache derivative %v disagrees with field %v", got, want)
	}
	if math32.Abs(got.Len()-1) > 1e-4 {
		t.Errorf("derivative length = %f, want 1", got.Len())
	}
}

func TestCacheSkipSwitch(t *testing.T) {
	w := testWorld(t)
	c := NewCache(32)
	c.Generate(math3.Int3{X: 0, Y: 0, Z: 0}, w)

	p := math3.Vec3{8.4, 9.1, 5.9}
	cached := c.Value(p)

	SkipCache = true
	defer func() { SkipCache = false }()
	direct := c.Value(p)

	if math32.Abs(cached-direct) > 1e-3 {
		t.Errorf("cached %f vs direct %f beyond interpolation error", cached, direct)
	}
}

func TestCacheNonZeroChunk(t *testing.T) {
	w := testWorld(t)
	c := NewCache(32)
	c.Generate(math3.Int3{X: -1, Y: 2, Z: -1}, w)

	pos := math3.Int3{X: -10, Y: 70, Z: -5}
	if got, want := c.ValueInt(pos), w.Value(pos.Vec3()); got != want {
		t.Errorf("ValueInt(%v) = %f, want %f", pos, got, want)
	}
}
