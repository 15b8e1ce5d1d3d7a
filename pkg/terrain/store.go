package terrain

import (
	"fmt"

	"github.com/chazu/regolith/pkg/math3"
)

// Store owns the fixed-capacity pool of chunk records and the sparse
// indexes over them: coordinate to handle, coordinate to vertex count,
// and the intrusive list of chunks holding a published mesh. All access
// is from the scheduler's owner thread.
type Store struct {
	capacity int
	records  []*Chunk
	free     []Handle

	byIndex      map[uint32]Handle
	vertexCounts map[uint32]VertexCount

	genHead, genTail Handle
}

// NewStore creates a store that will allocate at most capacity chunk
// records. Records are created lazily, so an oversized pool costs nothing
// until it is actually used.
func NewStore(capacity int) *Store {
	return &Store{
		capacity:     capacity,
		byIndex:      make(map[uint32]Handle),
		vertexCounts: make(map[uint32]VertexCount),
		genHead:      InvalidHandle,
		genTail:      InvalidHandle,
	}
}

// Len returns the number of live chunk records.
func (s *Store) Len() int {
	return len(s.records) - len(s.free)
}

// Chunk resolves a handle to its record.
func (s *Store) Chunk(h Handle) *Chunk {
	c := s.records[h]
	c.assertAlive()
	return c
}

// Allocate takes a record from the pool for the chunk at pos, or returns
// InvalidHandle when the pool is exhausted. The record is reset but not
// yet visible through Get; the scheduler publishes it after extraction.
func (s *Store) Allocate(pos math3.Int3) Handle {
	var h Handle
	if n := len(s.free); n > 0 {
		h = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		if len(s.records) >= s.capacity {
			return InvalidHandle
		}
		h = Handle(len(s.records))
		s.records = append(s.records, &Chunk{})
	}
	s.records[h].reset(pos)
	return h
}

// Free releases a record: vertex memory is dropped, the coordinate map
// entry is cleared only if it still points at this record, and the record
// leaves the generated list. The vertex-count entry is left alone; a
// freed chunk's count makes the coordinate a regeneration candidate.
func (s *Store) Free(h Handle) {
	c := s.records[h]
	c.assertAlive()

	idx := ChunkIndex(c.pos)
	if cur, ok := s.byIndex[idx]; ok && cur == h {
		delete(s.byIndex, idx)
	}

	c.vertices = nil
	s.removeGenerated(h)
	c.check = 0
	s.free = append(s.free, h)
}

// Get returns the handle published for a chunk index, or InvalidHandle.
func (s *Store) Get(index uint32) Handle {
	if h, ok := s.byIndex[index]; ok {
		s.records[h].assertAlive()
		return h
	}
	return InvalidHandle
}

// GetAt returns the handle published for a chunk coordinate.
func (s *Store) GetAt(pos math3.Int3) Handle {
	return s.Get(ChunkIndex(pos))
}

// Publish makes h the record visible at its coordinate.
func (s *Store) Publish(h Handle) {
	c := s.records[h]
	c.assertAlive()
	s.byIndex[ChunkIndex(c.pos)] = h
}

// Unpublish clears the coordinate map entry for index.
func (s *Store) Unpublish(index uint32) {
	delete(s.byIndex, index)
}

// Count returns the vertex count recorded for a chunk index; absent
// entries read as CountEmpty.
func (s *Store) Count(index uint32) VertexCount {
	if c, ok := s.vertexCounts[index]; ok {
		return c
	}
	return CountEmpty
}

// CountAt returns the vertex count recorded for a chunk coordinate.
func (s *Store) CountAt(pos math3.Int3) VertexCount {
	return s.Count(ChunkIndex(pos))
}

// SetCount records a chunk's vertex count. CountEmpty removes the entry.
func (s *Store) SetCount(index uint32, count VertexCount) {
	if count != CountDirty && count != CountInterior && count > MaxChunkVerts {
		panic(fmt.Sprintf("terrain: vertex count %d for chunk %d out of range", count, index))
	}
	if count == CountEmpty {
		delete(s.vertexCounts, index)
		return
	}
	s.vertexCounts[index] = count
}

// AppendGenerated links h onto the tail of the generated list.
func (s *Store) AppendGenerated(h Handle) {
	c := s.records[h]
	if c.inGenerated {
		return
	}
	c.inGenerated = true
	c.genPrev = s.genTail
	c.genNext = InvalidHandle
	if s.genTail != InvalidHandle {
		s.records[s.genTail].genNext = h
	} else {
		s.genHead = h
	}
	s.genTail = h
}

// removeGenerated unlinks h from the generated list if present.
func (s *Store) removeGenerated(h Handle) {
	c := s.records[h]
	if !c.inGenerated {
		return
	}
	if c.genPrev != InvalidHandle {
		s.records[c.genPrev].genNext = c.genNext
	} else {
		s.genHead = c.genNext
	}
	if c.genNext != InvalidHandle {
		s.records[c.genNext].genPrev = c.genPrev
	} else {
		s.genTail = c.genPrev
	}
	c.inGenerated = false
	c.genPrev = InvalidHandle
	c.genNext = InvalidHandle
}

// FirstGenerated returns the head of the generated list.
func (s *Store) FirstGenerated() Handle { return s.genHead }

// NextGenerated returns the element after h in the generated list.
func (s *Store) NextGenerated(h Handle) Handle {
	return s.records[h].genNext
}
