package terrain

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/chazu/regolith/pkg/math3"
	"github.com/chazu/regolith/pkg/sdf"
)

// Each voxel tests the three edges leaving its (1,1,1) corner; the other
// nine edges of the cell are covered by neighboring voxels. Bit positions
// follow the full twelve-edge numbering even though only three are ever
// set.
const (
	edgeTopFrontBit       uint16 = 1 << 0
	edgeTopRightBit       uint16 = 1 << 1
	edgeSideFrontRightBit uint16 = 1 << 5
)

// tempEdge records the surface crossings found on one voxel's three
// tested edges: which edges crossed, and per edge the voxel-local
// crossing position and the field gradient there.
type tempEdge struct {
	b uint16
	p [3]math3.Vec3
	n [3]math3.Vec3
}

// edgeTableIndex addresses the scratch edge table, which covers the chunk
// plus a one-voxel halo; x, y, z are halo-shifted (voxel -1 maps to 0).
func edgeTableIndex(x, y, z int32) int32 {
	return x + TempChunkSize*(y+z*TempChunkSize)
}

// quadVertexOffsets lists, for each tested edge, the four voxels sharing
// that edge; their dual vertices form the quad the crossing expands into.
var quadVertexOffsets = [3][4]math3.Int3{
	// top front
	{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 1, 1}},
	// top right
	{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}},
	// side front-right
	{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0}},
}

// edgeCornerOffsets gives the two endpoints of each tested edge relative
// to the voxel origin.
var edgeCornerOffsets = [3][2]math3.Int3{
	{{0, 1, 1}, {1, 1, 1}}, // top front
	{{1, 0, 1}, {1, 1, 1}}, // top right
	{{1, 1, 0}, {1, 1, 1}}, // side front-right
}

var edgeMasks = [3]uint16{edgeTopFrontBit, edgeTopRightBit, edgeSideFrontRightBit}

// generateChunk extracts the isosurface of one chunk. It walks every
// voxel of the halo-extended cube, finds sign-changing edges, expands each
// crossing into a quad between the dual vertices of the four voxels
// sharing the edge, then positions every emitted vertex with the QEF
// minimizer over its collected crossings.
//
// Returns the vertex and index counts written into verts and indices.
// A zero-triangle chunk reports CountInterior when its classification is
// entirely interior and CountEmpty otherwise; a chunk whose mesh would
// overflow the buffers reports CountEmpty.
func generateChunk(chunk *Chunk, cache *sdf.Cache, edges []tempEdge, verts []Vertex, indices []Index) (VertexCount, uint32) {
	for i := range edges {
		edges[i] = tempEdge{}
	}

	chunkOffset := chunk.pos.Mul(ChunkSize)
	vertexCount := uint32(0)
	indexCount := uint32(0)

	// Surface pass: find edge crossings and expand them into quads. The
	// vertices are voxel-centered here and nudged to their minimized
	// position afterwards.
	for z := int32(-1); z < ChunkSize+1; z++ {
		for y := int32(-1); y < ChunkSize+1; y++ {
			for x := int32(-1); x < ChunkSize+1; x++ {
				var cornerValues [3][2]float32
				for e := 0; e < 3; e++ {
					for j := 0; j < 2; j++ {
						g := chunkOffset.Add(math3.Int3{X: x, Y: y, Z: z}).Add(edgeCornerOffsets[e][j])
						v := cache.ValueInt(g)
						if v == 0 {
							// A value of exactly zero would produce two
							// coincident vertices for the same surface point.
							v = 0.0001
						}
						cornerValues[e][j] = v
					}
				}

				var edgeBits uint16
				for e := 0; e < 3; e++ {
					if cornerValues[e][0]*cornerValues[e][1] <= 0 {
						edgeBits |= edgeMasks[e]
					}
				}

				if edgeBits == 0 {
					if x >= 0 && y >= 0 && z >= 0 && x < ChunkSize && y < ChunkSize && z < ChunkSize {
						if chunk.i[x][y][z] != InvalidIndex {
							continue
						}
						center := math3.Vec3{
							float32(chunkOffset.X+x) + 0.5,
							float32(chunkOffset.Y+y) + 0.5,
							float32(chunkOffset.Z+z) + 0.5,
						}
						if cache.Value(center) > 0 {
							chunk.t[x][y][z] = BlockExterior
						} else {
							chunk.t[x][y][z] = BlockInterior
						}
					}
					continue
				}

				te := &edges[edgeTableIndex(x+1, y+1, z+1)]
				te.b = edgeBits

				for e := 0; e < 3; e++ {
					if edgeBits&edgeMasks[e] == 0 {
						continue
					}

					if vertexCount+4 > MaxChunkVerts || indexCount+6 > MaxChunkIndices {
						return CountEmpty, 0
					}

					// Midpoint-search the crossing between the inside and
					// outside endpoints.
					var c0, c1 math3.Vec3
					if cornerValues[e][0] < cornerValues[e][1] {
						c0 = edgeCornerOffsets[e][0].Vec3()
						c1 = edgeCornerOffsets[e][1].Vec3()
					} else {
						c0 = edgeCornerOffsets[e][1].Vec3()
						c1 = edgeCornerOffsets[e][0].Vec3()
					}

					voxelBase := math3.Vec3{
						float32(chunkOffset.X + x),
						float32(chunkOffset.Y + y),
						float32(chunkOffset.Z + z),
					}
					var edgeVoxelPos math3.Vec3
					for i := 0; i < 16; i++ {
						edgeVoxelPos = c0.Add(c1).Mul(0.5)
						v := cache.Value(voxelBase.Add(edgeVoxelPos))
						if math32.Abs(v) < 0.001 {
							break
						}
						if v < 0 {
							c0 = edgeVoxelPos
						} else {
							c1 = edgeVoxelPos
						}
					}

					te.p[e] = edgeVoxelPos
					te.n[e] = cache.Derivative(voxelBase.Add(edgeVoxelPos))

					if x < 0 || y < 0 || z < 0 || x >= ChunkSize || y >= ChunkSize || z >= ChunkSize {
						continue
					}

					// Expand the crossing into a quad between the dual
					// vertices of the four voxels sharing this edge,
					// creating any of those vertices that do not exist yet.
					var ind [4]Index
					for j := 0; j < 4; j++ {
						o := quadVertexOffsets[e][j]
						ox := x + o.X
						oy := y + o.Y
						oz := z + o.Z
						// Quad voxels may sit one past the chunk's high
						// edge; those vertices are emitted but not recorded.
						if ox < 0 || oy < 0 || oz < 0 || ox > ChunkSize || oy > ChunkSize || oz > ChunkSize {
							continue
						}
						inCurrentChunk := ox < ChunkSize && oy < ChunkSize && oz < ChunkSize
						if !inCurrentChunk || chunk.i[ox][oy][oz] == InvalidIndex {
							verts[vertexCount] = Vertex{
								Position: math3.Vec3{
									float32(ox) + 0.5,
									float32(oy) + 0.5,
									float32(oz) + 0.5,
								},
							}
							ind[j] = Index(vertexCount)
							if inCurrentChunk {
								chunk.i[ox][oy][oz] = Index(vertexCount)
								chunk.t[ox][oy][oz] = BlockSurface
							}
							vertexCount++
						} else {
							ind[j] = chunk.i[ox][oy][oz]
						}
					}

					// Winding follows the sign at the shared (1,1,1)
					// corner so faces point out of the surface.
					var flip bool
					switch e {
					case 0:
						flip = cornerValues[2][1] > 0
					default:
						flip = cornerValues[2][1] < 0
					}
					if flip {
						indices[indexCount+0] = ind[0]
						indices[indexCount+1] = ind[1]
						indices[indexCount+2] = ind[2]
						indices[indexCount+3] = ind[1]
						indices[indexCount+4] = ind[3]
						indices[indexCount+5] = ind[2]
					} else {
						indices[indexCount+0] = ind[0]
						indices[indexCount+1] = ind[2]
						indices[indexCount+2] = ind[1]
						indices[indexCount+3] = ind[1]
						indices[indexCount+4] = ind[2]
						indices[indexCount+5] = ind[3]
					}
					indexCount += 6
				}
			}
		}
	}

	if indexCount == 0 {
		if chunkIsInterior(chunk) {
			return CountInterior, 0
		}
		return CountEmpty, 0
	}

	// Vertex pass: gather every crossing adjacent to each vertex's voxel
	// and minimize the point-to-plane error over them.
	for vi := uint32(0); vi < vertexCount; vi++ {
		vertex := &verts[vi]
		x := int32(math32.Floor(vertex.Position.X()))
		y := int32(math32.Floor(vertex.Position.Y()))
		z := int32(math32.Floor(vertex.Position.Z()))

		var ps, ns [12]math3.Vec3
		ec := gatherVoxelEdges(edges, x, y, z, &ps, &ns)

		var normal math3.Vec3
		for j := 0; j < ec; j++ {
			normal = normal.Add(ns[j])
		}
		vertex.Normal = math3.SafeNormalize(normal)

		// The minimized position may land outside the emitting voxel.
		// That is required: a voxel can have all eight corners on one
		// side of the surface yet still carry edge crossings, and
		// clamping to the voxel would tear visible seams.
		position := solveQEF(ps[:ec], ns[:ec])
		vertex.Position = math3.Vec3{
			float32(chunkOffset.X+x) + position.X(),
			float32(chunkOffset.Y+y) + position.Y(),
			float32(chunkOffset.Z+z) + position.Z(),
		}
		if !math3.IsFinite(vertex.Position) {
			panic(fmt.Sprintf("terrain: vertex %d of chunk %v is not finite", vi, chunk.pos))
		}

		vertex.Info = [4]uint8{0, 1, 255, 0}

		material := cache.Material(vertex.Position)
		for m := uint8(0); m < 4; m++ {
			if material == m {
				vertex.Materials[m] = 255
			} else {
				vertex.Materials[m] = 0
			}
		}
	}

	return VertexCount(vertexCount), indexCount
}

// gatherVoxelEdges collects the crossing positions and normals of every
// tested edge touching the voxel at (x, y, z), expressed relative to that
// voxel's origin. A voxel sees its own three edges plus crossings stored
// by six neighboring cells of the edge table.
func gatherVoxelEdges(edges []tempEdge, x, y, z int32, ps, ns *[12]math3.Vec3) int {
	ec := 0
	add := func(p, n math3.Vec3, dx, dy float32) {
		ps[ec] = math3.Vec3{p.X() + dx, p.Y() + dy, p.Z()}
		ns[ec] = n
		ec++
	}
	addZ := func(p, n math3.Vec3, dx, dy, dz float32) {
		ps[ec] = math3.Vec3{p.X() + dx, p.Y() + dy, p.Z() + dz}
		ns[ec] = n
		ec++
	}

	te := edges[edgeTableIndex(x+1, y+1, z+1)]
	if te.b&edgeTopFrontBit != 0 {
		add(te.p[0], te.n[0], 0, 0)
	}
	if te.b&edgeTopRightBit != 0 {
		add(te.p[1], te.n[1], 0, 0)
	}
	if te.b&edgeSideFrontRightBit != 0 {
		add(te.p[2], te.n[2], 0, 0)
	}

	te = edges[edgeTableIndex(x, y+1, z+1)]
	if te.b&edgeTopRightBit != 0 {
		add(te.p[1], te.n[1], -1, 0)
	}
	if te.b&edgeSideFrontRightBit != 0 {
		add(te.p[2], te.n[2], -1, 0)
	}

	te = edges[edgeTableIndex(x+1, y, z+1)]
	if te.b&edgeTopFrontBit != 0 {
		add(te.p[0], te.n[0], 0, -1)
	}
	if te.b&edgeSideFrontRightBit != 0 {
		add(te.p[2], te.n[2], 0, -1)
	}

	te = edges[edgeTableIndex(x, y, z+1)]
	if te.b&edgeSideFrontRightBit != 0 {
		add(te.p[2], te.n[2], -1, -1)
	}

	te = edges[edgeTableIndex(x, y+1, z)]
	if te.b&edgeTopRightBit != 0 {
		addZ(te.p[1], te.n[1], -1, 0, -1)
	}

	te = edges[edgeTableIndex(x+1, y, z)]
	if te.b&edgeTopFrontBit != 0 {
		addZ(te.p[0], te.n[0], 0, -1, -1)
	}

	te = edges[edgeTableIndex(x+1, y+1, z)]
	if te.b&edgeTopFrontBit != 0 {
		addZ(te.p[0], te.n[0], 0, 0, -1)
	}
	if te.b&edgeTopRightBit != 0 {
		addZ(te.p[1], te.n[1], 0, 0, -1)
	}

	return ec
}

// chunkIsInterior reports whether every voxel of the chunk classified as
// interior; used to tell a fully buried chunk from an empty one when no
// triangles were produced.
func chunkIsInterior(chunk *Chunk) bool {
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				if chunk.t[x][y][z] != BlockInterior {
					return false
				}
			}
		}
	}
	return true
}
