package terrain

import (
	"testing"

	"github.com/chazu/regolith/pkg/math3"
)

func TestChunkIndexInjective(t *testing.T) {
	seen := make(map[uint32]math3.Int3)
	for z := int32(-6); z <= 6; z++ {
		for y := int32(-6); y <= 6; y++ {
			for x := int32(-6); x <= 6; x++ {
				pos := math3.Int3{X: x, Y: y, Z: z}
				ci := ChunkIndex(pos)
				if prev, ok := seen[ci]; ok {
					t.Fatalf("ChunkIndex collision: %v and %v both map to %d", prev, pos, ci)
				}
				seen[ci] = pos
			}
		}
	}
}

func TestWorldToChunk(t *testing.T) {
	cases := []struct {
		in    math3.Int3
		chunk math3.Int3
		local math3.Int3
	}{
		{math3.Int3{X: 0, Y: 0, Z: 0}, math3.Int3{}, math3.Int3{}},
		{math3.Int3{X: 31, Y: 31, Z: 31}, math3.Int3{}, math3.Int3{X: 31, Y: 31, Z: 31}},
		{math3.Int3{X: 32, Y: 0, Z: 0}, math3.Int3{X: 1}, math3.Int3{}},
		{math3.Int3{X: -1, Y: -32, Z: -33}, math3.Int3{X: -1, Y: -1, Z: -2}, math3.Int3{X: 31, Y: 0, Z: 31}},
	}
	for _, c := range cases {
		chunk, local := WorldToChunk(c.in)
		if chunk != c.chunk || local != c.local {
			t.Errorf("WorldToChunk(%v) = %v, %v; want %v, %v", c.in, chunk, local, c.chunk, c.local)
		}
	}
}

func TestStoreAllocateToCapacity(t *testing.T) {
	s := NewStore(2)

	h0 := s.Allocate(math3.Int3{X: 0})
	h1 := s.Allocate(math3.Int3{X: 1})
	if h0 == InvalidHandle || h1 == InvalidHandle {
		t.Fatal("allocation within capacity failed")
	}
	if h := s.Allocate(math3.Int3{X: 2}); h != InvalidHandle {
		t.Fatal("allocation beyond capacity should fail")
	}

	s.Free(h0)
	if s.Len() != 1 {
		t.Errorf("len after free = %d, want 1", s.Len())
	}
	if h := s.Allocate(math3.Int3{X: 3}); h == InvalidHandle {
		t.Fatal("freed record should be reusable")
	}
}

func TestStorePublishAndFree(t *testing.T) {
	s := NewStore(4)
	pos := math3.Int3{X: 2, Y: -1, Z: 3}
	ci := ChunkIndex(pos)

	h := s.Allocate(pos)
	if s.Get(ci) != InvalidHandle {
		t.Error("allocated chunk should not be visible before publish")
	}

	s.Publish(h)
	if s.Get(ci) != h {
		t.Error("published chunk not found")
	}
	if s.GetAt(pos) != h {
		t.Error("GetAt disagrees with Get")
	}

	// Freeing only clears the map entry when it still points at the
	// freed record.
	h2 := s.Allocate(pos)
	s.Publish(h2)
	s.Free(h)
	if s.Get(ci) != h2 {
		t.Error("freeing a replaced chunk must not clear the new mapping")
	}
	s.Free(h2)
	if s.Get(ci) != InvalidHandle {
		t.Error("freeing the published chunk should clear the mapping")
	}
}

func TestStoreFreshChunkState(t *testing.T) {
	s := NewStore(1)
	h := s.Allocate(math3.Int3{X: 1, Y: 2, Z: 3})
	c := s.Chunk(h)

	if c.geoDirty {
		t.Error("fresh chunk should not be geo-dirty")
	}
	if !c.lightDirty {
		t.Error("fresh chunk should be light-dirty")
	}
	if c.t[0][0][0] != BlockExterior {
		t.Error("fresh classification should be exterior")
	}
	if c.i[5][6][7] != InvalidIndex {
		t.Error("fresh vertex indices should be invalid")
	}
	if c.vertices != nil {
		t.Error("fresh chunk should own no vertices")
	}
}

func TestVertexCountSentinels(t *testing.T) {
	s := NewStore(1)
	ci := ChunkIndex(math3.Int3{X: 5})

	if s.Count(ci) != CountEmpty {
		t.Error("absent entry should read empty")
	}

	s.SetCount(ci, CountDirty)
	if s.Count(ci) != CountDirty {
		t.Error("dirty sentinel lost")
	}

	s.SetCount(ci, 123)
	if s.Count(ci) != 123 {
		t.Error("real count lost")
	}

	s.SetCount(ci, CountInterior)
	if s.Count(ci) != CountInterior {
		t.Error("interior sentinel lost")
	}

	s.SetCount(ci, CountEmpty)
	if s.Count(ci) != CountEmpty {
		t.Error("empty should clear the entry")
	}

	// Sentinels sort above real counts so occupied-neighbor checks see
	// them as non-empty.
	if CountDirty <= MaxChunkVerts || CountInterior <= MaxChunkVerts {
		t.Error("sentinels must sort above real counts")
	}
}

func TestGeneratedList(t *testing.T) {
	s := NewStore(4)
	h0 := s.Allocate(math3.Int3{X: 0})
	h1 := s.Allocate(math3.Int3{X: 1})
	h2 := s.Allocate(math3.Int3{X: 2})

	s.AppendGenerated(h0)
	s.AppendGenerated(h1)
	s.AppendGenerated(h2)

	var got []Handle
	for h := s.FirstGenerated(); h != InvalidHandle; h = s.NextGenerated(h) {
		got = append(got, h)
	}
	if len(got) != 3 || got[0] != h0 || got[1] != h1 || got[2] != h2 {
		t.Fatalf("generated order = %v", got)
	}

	// Freeing the middle element relinks neighbors.
	s.Free(h1)
	got = got[:0]
	for h := s.FirstGenerated(); h != InvalidHandle; h = s.NextGenerated(h) {
		got = append(got, h)
	}
	if len(got) != 2 || got[0] != h0 || got[1] != h2 {
		t.Fatalf("generated after free = %v", got)
	}

	s.Free(h0)
	s.Free(h2)
	if s.FirstGenerated() != InvalidHandle {
		t.Error("generated list should be empty")
	}
}

func TestChunkAABB(t *testing.T) {
	aabb := ChunkAABB(math3.Int3{X: -1, Y: 0, Z: 2})
	if aabb.Min != (math3.Vec3{-32, 0, 64}) {
		t.Errorf("min = %v", aabb.Min)
	}
	if aabb.Max != (math3.Vec3{0, 32, 96}) {
		t.Errorf("max = %v", aabb.Max)
	}
}
