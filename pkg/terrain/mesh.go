package terrain

import (
	"encoding/binary"
	"math"
)

// VertexStride is the packed wire size of one vertex: position and normal
// as three float32 each, then the info and material bytes.
const VertexStride = 32

// PackVertices serializes vertices into the little-endian wire layout
// consumed by renderer collaborators.
func PackVertices(verts []Vertex) []byte {
	buf := make([]byte, len(verts)*VertexStride)
	off := 0
	putF32 := func(f float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	for i := range verts {
		v := &verts[i]
		putF32(v.Position.X())
		putF32(v.Position.Y())
		putF32(v.Position.Z())
		putF32(v.Normal.X())
		putF32(v.Normal.Y())
		putF32(v.Normal.Z())
		copy(buf[off:], v.Info[:])
		off += 4
		copy(buf[off:], v.Materials[:])
		off += 4
	}
	return buf
}

// PackIndices serializes triangle indices as little-endian uint16.
func PackIndices(indices []Index) []byte {
	buf := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
