// Package terrain materializes a signed distance field into streaming
// triangle meshes, one per 32^3 voxel chunk, around a moving viewer. A
// dual-contouring extractor places one vertex per surface voxel, a
// priority scheduler decides which chunks to (re)build each frame, and a
// query layer answers ray and sphere tests against the produced meshes
// and the underlying field.
package terrain

import (
	"math"

	"github.com/chazu/regolith/pkg/math3"
)

// ChunkSize is the voxel side length of a chunk.
const ChunkSize = 32

// TempChunkSize is the chunk size plus one halo voxel on each side, the
// stride of the per-job scratch edge table.
const TempChunkSize = ChunkSize + 2

const tempChunkSize3 = TempChunkSize * TempChunkSize * TempChunkSize

// Index addresses a vertex within one chunk's vertex array.
type Index = uint16

// InvalidIndex marks a voxel with no dual-contouring vertex.
const InvalidIndex Index = math.MaxUint16

// MaxChunkVerts bounds a chunk's vertex array; it must fit in Index with
// room for InvalidIndex.
const MaxChunkVerts = 16384

// MaxChunkIndices bounds a chunk's index array. Every sign-changing edge
// emits six indices but at most four new vertices, so indices need the
// larger budget.
const MaxChunkIndices = MaxChunkVerts * 6

// Block classifies one voxel.
type Block uint8

const (
	BlockExterior Block = iota
	BlockInterior
	BlockSurface
	BlockUnloaded
	blockCount
)

// VertexCount is a chunk's published vertex count, or one of three
// sentinels. The sentinels sort above every real count so "non-empty
// neighbor" checks treat Interior and Dirty chunks as occupied.
type VertexCount uint32

const (
	// CountEmpty marks a chunk entirely outside the surface. Empty
	// entries are dropped from the vertex-count map, so an absent
	// coordinate reads as CountEmpty.
	CountEmpty VertexCount = 0
	// CountDirty marks a chunk known to need generation with no mesh yet.
	CountDirty VertexCount = math.MaxUint32 - 1
	// CountInterior marks a chunk entirely inside the surface.
	CountInterior VertexCount = math.MaxUint32
)

// SkyBrightness is the nominal light level of unoccluded sky.
const SkyBrightness float32 = 1.0

// Vertex is one dual-contouring output vertex. The packed wire layout is
// position and normal as float32 triples followed by the info and
// material bytes, 32 bytes total.
type Vertex struct {
	Position  math3.Vec3
	Normal    math3.Vec3
	Info      [4]uint8
	Materials [4]uint8 // one-hot per dominant material, 0 or 255
}

// RaycastResult reports a terrain ray query. On a miss Distance, PosF and
// Normal are +Inf; on a hit every field is finite and Type is
// BlockSurface.
type RaycastResult struct {
	Hit             bool
	Type            Block
	Distance        float32
	PosI            math3.Int3
	PosF            math3.Vec3
	Normal          math3.Vec3
	TouchedUnloaded bool
}

// SweepResult reports the first contact of a swept sphere.
type SweepResult struct {
	Distance float32
	Normal   math3.Vec3
	Position math3.Vec3
}
