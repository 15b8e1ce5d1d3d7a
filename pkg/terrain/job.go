package terrain

import (
	"fmt"
	"sync/atomic"

	"github.com/chazu/regolith/pkg/math3"
	"github.com/chazu/regolith/pkg/sdf"
)

// Job is one chunk extraction unit. It owns its SDF cache, scratch edge
// table and output buffers, all reused across extractions so steady-state
// streaming never allocates. The owner thread starts and finishes jobs;
// Do runs on a worker and is the only method touched off-thread.
type Job struct {
	hasJob  bool
	running atomic.Bool

	world *sdf.World
	cache *sdf.Cache
	edges []tempEdge

	verts   []Vertex
	indices []Index

	vertexCount VertexCount
	indexCount  uint32

	chunk       Handle
	chunkRecord *Chunk
}

// NewJob allocates a job with its scratch and output buffers.
func NewJob() *Job {
	return &Job{
		cache:   sdf.NewCache(ChunkSize),
		edges:   make([]tempEdge, tempChunkSize3),
		verts:   make([]Vertex, MaxChunkVerts),
		indices: make([]Index, MaxChunkIndices),
		chunk:   InvalidHandle,
	}
}

// StartNew binds the job to a chunk and the committed field. The chunk
// record is owned by the job until Finish.
func (j *Job) StartNew(world *sdf.World, h Handle, record *Chunk) {
	if j.hasJob {
		panic(fmt.Sprintf("terrain: job for %v started before previous finished", record.pos))
	}
	record.assertAlive()

	j.hasJob = true
	j.running.Store(true)
	j.world = world
	j.vertexCount = CountEmpty
	j.indexCount = 0
	j.chunk = h
	j.chunkRecord = record
}

// Do runs the extraction: fill the SDF cache for the chunk, then contour
// it into the job's buffers. It is a run-to-completion unit; the
// running-flag store is the publication point for the results the owner
// reads after observing IsPendingFinish.
func (j *Job) Do() {
	j.cache.Generate(j.chunkRecord.pos, j.world)
	j.vertexCount, j.indexCount = generateChunk(j.chunkRecord, j.cache, j.edges, j.verts, j.indices)
	j.running.Store(false)
}

// Finish releases the job slot for reuse. Only valid once the work
// completed.
func (j *Job) Finish() {
	if j.chunkRecord == nil || j.running.Load() {
		panic("terrain: job finished while running")
	}
	j.hasJob = false
	j.world = nil
	j.vertexCount = CountEmpty
	j.indexCount = 0
	j.chunk = InvalidHandle
	j.chunkRecord = nil
}

// HasJob reports whether the slot is occupied.
func (j *Job) HasJob() bool { return j.hasJob }

// HasChunk reports whether the job is bound to the chunk at pos.
func (j *Job) HasChunk(pos math3.Int3) bool {
	return j.chunkRecord != nil && j.chunkRecord.pos == pos
}

// IsPendingFinish reports whether the work completed but the result has
// not been collected yet.
func (j *Job) IsPendingFinish() bool {
	return j.hasJob && !j.running.Load()
}

// Chunk returns the handle of the bound chunk.
func (j *Job) Chunk() Handle { return j.chunk }

// VertexCount returns the extraction result count or sentinel.
func (j *Job) VertexCount() VertexCount { return j.vertexCount }

// IndexCount returns the number of indices produced.
func (j *Job) IndexCount() uint32 { return j.indexCount }

// Vertices returns the produced vertices; valid until the next StartNew.
func (j *Job) Vertices() []Vertex {
	return j.verts[:uint32(j.vertexCount)]
}

// Indices returns the produced indices; valid until the next StartNew.
func (j *Job) Indices() []Index {
	return j.indices[:j.indexCount]
}
