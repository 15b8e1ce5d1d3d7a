package terrain

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
)

// chunkCheckWord guards chunk records against use after free.
const chunkCheckWord = 0xCDCDCDCD

// Handle addresses a chunk record in the store's arena. Handles stay
// valid until the record is freed.
type Handle int32

// InvalidHandle is the null chunk handle.
const InvalidHandle Handle = -1

// Chunk is one S^3 voxel region: per-voxel classification, light and
// vertex-index grids plus the owned vertex array once extraction has
// published a mesh. Records live in the store's fixed-capacity arena.
type Chunk struct {
	check uint32
	pos   math3.Int3

	t [ChunkSize][ChunkSize][ChunkSize]Block
	l [ChunkSize][ChunkSize][ChunkSize]float32
	i [ChunkSize][ChunkSize][ChunkSize]Index

	vertices []Vertex

	geoDirty   bool
	lightDirty bool

	genPrev, genNext Handle
	inGenerated      bool
}

// Pos returns the chunk coordinate.
func (c *Chunk) Pos() math3.Int3 { return c.pos }

// Vertices returns the published vertex array; nil before publication.
func (c *Chunk) Vertices() []Vertex { return c.vertices }

// reset prepares a pooled record for a fresh extraction at pos. The
// geoDirty flag starts false; only the scheduler sets it, when a committed
// edit lands on the chunk.
func (c *Chunk) reset(pos math3.Int3) {
	c.check = chunkCheckWord
	c.pos = pos
	c.geoDirty = false
	c.lightDirty = true
	c.vertices = nil
	c.genPrev = InvalidHandle
	c.genNext = InvalidHandle
	c.inGenerated = false

	c.t = [ChunkSize][ChunkSize][ChunkSize]Block{}
	c.l = [ChunkSize][ChunkSize][ChunkSize]float32{}
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				c.i[x][y][z] = InvalidIndex
			}
		}
	}
}

// assertAlive panics if the record was freed or corrupted.
func (c *Chunk) assertAlive() {
	if c.check != chunkCheckWord {
		panic(fmt.Sprintf("terrain: chunk %v check word %#x", c.pos, c.check))
	}
}

// ChunkIndex maps a chunk coordinate to the hash key used by the sparse
// chunk and vertex-count maps. It folds the three signed components
// through a Cantor-style pairing so nearby coordinates stay distinct.
// https://stackoverflow.com/questions/919612/mapping-two-integers-to-one-in-a-unique-and-deterministic-way
// https://dmauro.com/post/77011214305/a-hashing-function-for-x-y-z-coordinates
func ChunkIndex(pos math3.Int3) uint32 {
	fold := func(v int32) uint32 {
		if v >= 0 {
			return uint32(2 * v)
		}
		return uint32(-2*v - 1)
	}
	x := fold(pos.X)
	y := fold(pos.Y)
	z := fold(pos.Z)

	maxv := x
	if y > maxv {
		maxv = y
	}
	if z > maxv {
		maxv = z
	}

	hash := maxv*maxv*maxv + 2*maxv*z + z
	if maxv == z {
		xy := x
		if y > xy {
			xy = y
		}
		hash += xy * xy
	}
	if y >= x {
		hash += x + y
	} else {
		hash += y
	}
	return hash
}

// WorldToChunk splits a world voxel coordinate into its chunk coordinate
// and the voxel's position local to that chunk.
func WorldToChunk(pos math3.Int3) (chunkPos, localPos math3.Int3) {
	chunkPos = math3.Int3{
		X: int32(math32.Floor(float32(pos.X) / ChunkSize)),
		Y: int32(math32.Floor(float32(pos.Y) / ChunkSize)),
		Z: int32(math32.Floor(float32(pos.Z) / ChunkSize)),
	}
	localPos = pos.Sub(chunkPos.Mul(ChunkSize))
	return chunkPos, localPos
}

// ChunkAABB returns the world bounds of the chunk at pos.
func ChunkAABB(pos math3.Int3) math3.AABB {
	min := pos.Mul(ChunkSize).Vec3()
	return math3.AABB{
		Min: min,
		Max: min.Add(math3.Vec3{ChunkSize, ChunkSize, ChunkSize}),
	}
}
