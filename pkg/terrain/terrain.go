package terrain

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/regolith/pkg/math3"
	"github.com/chazu/regolith/pkg/sdf"
)

// maxActiveChunks caps how many chunk meshes are handed to the renderer
// per frame.
const maxActiveChunks = 512

// defaultChunkPoolSize bounds the chunk arena when the config leaves it
// zero.
const defaultChunkPoolSize = 256

// Config configures a Terrain at construction.
type Config struct {
	// Pool is the borrowed worker-pool collaborator. Nil or zero-size
	// runs one extraction inline per Update call.
	Pool JobPool
	// Render enables mesh uploads to the Renderer collaborator.
	Render bool
	// Renderer receives packed chunk meshes; ignored unless Render is set.
	Renderer Renderer
	// ChunkPoolSize caps live chunk records; 0 uses the default.
	ChunkPoolSize int
	// Log receives debug diagnostics; nil discards them.
	Log *slog.Logger
}

// chunkSort is one scratch entry of the per-frame priority list.
type chunkSort struct {
	h     Handle
	pos   math3.Int3
	score float32
}

// Terrain is the engine facade: it owns the SDF world, the chunk store
// and the extraction jobs, and schedules chunk (re)generation around the
// viewer. All methods must be called from one owner thread; only job
// execution runs on the borrowed pool.
type Terrain struct {
	cfg      Config
	log      *slog.Logger
	pool     JobPool
	renderer Renderer

	world *sdf.World
	store *Store
	jobs  []*Job

	center math3.Vec3
	radius float32

	sorts   []chunkSort
	sortMap map[uint32]chunkSort

	blockCollision [blockCount]bool
	blockDensity   [blockCount]float32

	regenerated uint64
}

// New creates a terrain engine from cfg.
func New(cfg Config) *Terrain {
	// The extractor can emit up to MaxChunkVerts vertices, all of which
	// must be addressable by Index with InvalidIndex reserved.
	if MaxChunkVerts >= int(InvalidIndex) {
		panic(fmt.Sprintf("terrain: MaxChunkVerts %d does not fit Index", MaxChunkVerts))
	}

	t := &Terrain{
		cfg:      cfg,
		log:      cfg.Log,
		pool:     cfg.Pool,
		renderer: cfg.Renderer,
		world:    sdf.NewWorld(),
		sortMap:  make(map[uint32]chunkSort),
	}
	if t.log == nil {
		t.log = slog.New(slog.DiscardHandler)
	}
	if t.pool == nil {
		t.pool = zeroPool{}
	}

	poolSize := cfg.ChunkPoolSize
	if poolSize <= 0 {
		poolSize = defaultChunkPoolSize
	}
	t.store = NewStore(poolSize)

	jobCount := t.pool.Size()
	if jobCount < 1 {
		jobCount = 1
	}
	for i := 0; i < jobCount; i++ {
		t.jobs = append(t.jobs, NewJob())
	}

	for b := Block(0); b < blockCount; b++ {
		t.blockCollision[b] = true
		t.blockDensity[b] = 1
	}
	t.blockCollision[BlockExterior] = false
	t.blockCollision[BlockUnloaded] = false

	return t
}

// SDF returns the engine's field; shapes are added and edited through it.
// Edits stay pending until the scheduler commits them on an idle frame.
func (t *Terrain) SDF() *sdf.World { return t.world }

// Store exposes the chunk store for inspection.
func (t *Terrain) Store() *Store { return t.store }

// RegeneratedCount returns how many extraction jobs have completed.
func (t *Terrain) RegeneratedCount() uint64 { return t.regenerated }

// SetBlockCollision configures whether a voxel classification blocks
// collision queries.
func (t *Terrain) SetBlockCollision(b Block, collides bool) {
	t.blockCollision[b] = collides
}

// SetBlockDensity configures the density reported for a classification.
func (t *Terrain) SetBlockDensity(b Block, density float32) {
	t.blockDensity[b] = density
}

// BlockDensity returns the density configured for a classification.
func (t *Terrain) BlockDensity(b Block) float32 {
	return t.blockDensity[b]
}

// Terminate drains in-flight jobs and frees every chunk record. The
// borrowed worker pool is not stopped; it belongs to the caller.
func (t *Terrain) Terminate() {
	for _, job := range t.jobs {
		for job.hasJob && job.running.Load() {
			runtime.Gosched()
		}
		if job.IsPendingFinish() {
			job.Finish()
		}
	}

	var live []Handle
	for h, c := range t.store.records {
		if c.check == chunkCheckWord {
			live = append(live, Handle(h))
		}
	}
	for _, h := range live {
		t.store.Free(h)
	}
}

// Update runs one scheduler frame: propagate committed SDF edits to the
// chunks they touch, enumerate and prioritize the chunks around the
// viewer, publish finished jobs, commit pending edits when the pool is
// idle, and dispatch new extraction jobs by priority.
func (t *Terrain) Update(center math3.Vec3, radius float32) {
	t.center = center
	t.radius = radius

	// Dirty the chunks overlapping shapes modified by the last commit,
	// covering both the previous and current footprint of each shape.
	for _, aabb := range t.world.TakeRemovedAABBs() {
		t.dirtyRegion(aabb)
	}
	for _, shape := range t.world.Shapes() {
		if shape.Dirty() {
			t.dirtyRegion(shape.PrevAABB())
			t.dirtyRegion(shape.AABB())
			shape.ClearDirty()
		}
	}

	// Enumerate candidate chunks in the view sphere, keyed by coordinate
	// so the generated-list pass below overwrites duplicates. The window
	// is rounded up and padded by one chunk so every coordinate whose AABB
	// can reach the sphere is inside it.
	clear(t.sortMap)
	chunkViewRadius := int32(math32.Ceil(radius/ChunkSize)) + 1
	chunkViewDiam := chunkViewRadius*2 + 1
	viewChunk := math3.Int3{
		X: int32(math32.Round(center.X() / ChunkSize)),
		Y: int32(math32.Round(center.Y() / ChunkSize)),
		Z: int32(math32.Round(center.Z() / ChunkSize)),
	}
	for k := int32(0); k < chunkViewDiam; k++ {
		for j := int32(0); j < chunkViewDiam; j++ {
			for i := int32(0); i < chunkViewDiam; i++ {
				pos := math3.Int3{X: i, Y: j, Z: k}
				pos = pos.Sub(math3.Int3{X: chunkViewRadius, Y: chunkViewRadius, Z: chunkViewRadius})
				pos = pos.Add(viewChunk)

				if !ChunkAABB(pos).IntersectsSphere(center, radius) {
					continue
				}

				ci := ChunkIndex(pos)
				vc := t.store.Count(ci)
				if vc == CountEmpty || vc == CountInterior {
					continue
				}

				t.sortMap[ci] = chunkSort{
					h:     t.store.Get(ci),
					pos:   pos,
					score: t.chunkScore(pos),
				}
			}
		}
	}
	// Track every generated chunk regardless of distance so chunks that
	// left the view window remain candidates for eviction.
	for h := t.store.FirstGenerated(); h != InvalidHandle; h = t.store.NextGenerated(h) {
		pos := t.store.Chunk(h).pos
		t.sortMap[ChunkIndex(pos)] = chunkSort{h: h, pos: pos, score: t.chunkScore(pos)}
	}

	// Sort by priority; the lowest score is serviced first.
	t.sorts = t.sorts[:0]
	for _, cs := range t.sortMap {
		t.sorts = append(t.sorts, cs)
	}
	sort.Slice(t.sorts, func(a, b int) bool {
		return t.sorts[a].score < t.sorts[b].score
	})

	// Collect finished jobs as late as possible so workers overlap the
	// sorting above.
	for _, job := range t.jobs {
		if job.IsPendingFinish() {
			t.finishJob(job)
		}
	}

	// Commit buffered field edits only while nothing reads the field;
	// with edits still pending it is pointless to start jobs on a field
	// about to change.
	if t.pool.Size() == 0 || t.pool.IdleCount() == t.pool.Size() {
		t.world.CommitPending()
	} else if t.world.HasPending() {
		return
	}

	t.dispatchJobs()
}

// dirtyRegion marks every chunk whose halo-extended cache overlaps aabb
// for regeneration: existing chunks get their geoDirty flag, coordinates
// without a chunk get the Dirty sentinel in the vertex-count map.
func (t *Terrain) dirtyRegion(aabb math3.AABB) {
	aabb = aabb.Expand(sdf.Boundary)

	minChunk := math3.Floor3(aabb.Min.Mul(1.0 / ChunkSize))
	maxChunk := math3.Int3{
		X: int32(math32.Ceil(aabb.Max.X() / ChunkSize)),
		Y: int32(math32.Ceil(aabb.Max.Y() / ChunkSize)),
		Z: int32(math32.Ceil(aabb.Max.Z() / ChunkSize)),
	}

	for z := minChunk.Z; z < maxChunk.Z; z++ {
		for y := minChunk.Y; y < maxChunk.Y; y++ {
			for x := minChunk.X; x < maxChunk.X; x++ {
				pos := math3.Int3{X: x, Y: y, Z: z}
				if h := t.store.GetAt(pos); h != InvalidHandle {
					t.store.Chunk(h).geoDirty = true
				} else {
					t.log.Debug("dirty chunk", "pos", pos)
					t.store.SetCount(ChunkIndex(pos), CountDirty)
				}
			}
		}
	}
}

// chunkScore is the dispatch priority for pos: plain viewer distance when
// any face neighbor is known non-empty, squared distance otherwise. The
// bias walks the surface frontier first, which finds occupied chunks much
// sooner during bulk loads.
func (t *Terrain) chunkScore(pos math3.Int3) float32 {
	centerDistance := t.center.Sub(ChunkAABB(pos).Center()).Len()

	neighbors := [6]math3.Int3{
		{X: 1}, {Y: 1}, {Z: 1},
		{X: -1}, {Y: -1}, {Z: -1},
	}
	for _, d := range neighbors {
		if t.store.CountAt(pos.Add(d)) > CountEmpty {
			return centerDistance
		}
	}
	return centerDistance * centerDistance
}

// finishJob publishes one completed extraction: empty and interior
// results record their sentinel and drop the chunk, meshes are copied
// into the chunk record, uploaded to the renderer and replace any
// previous chunk at the coordinate.
func (t *Terrain) finishJob(job *Job) {
	newH := job.Chunk()
	newChunk := t.store.Chunk(newH)
	ci := ChunkIndex(newChunk.pos)

	vc := job.VertexCount()
	oldH := t.store.Get(ci)

	if vc == CountEmpty || vc == CountInterior {
		t.store.Free(newH)
		newH = InvalidHandle
		newChunk = nil
	} else {
		newChunk.vertices = make([]Vertex, uint32(vc))
		copy(newChunk.vertices, job.Vertices())

		if t.cfg.Render && t.renderer != nil {
			t.renderer.UploadChunk(newChunk.pos, PackVertices(job.Vertices()), PackIndices(job.Indices()))
		}

		newChunk.lightDirty = true
		if oldH != InvalidHandle {
			// Carry the dirty flag over in case the chunk was edited
			// again while this job was running.
			newChunk.geoDirty = t.store.Chunk(oldH).geoDirty
		}
	}

	if oldH != InvalidHandle {
		// The sort scratch may still reference the replaced chunk.
		for i := range t.sorts {
			if t.sorts[i].h == oldH {
				t.sorts[i].h = newH
				break
			}
		}
		t.store.Free(oldH)
	}

	t.store.SetCount(ci, vc)
	if newH != InvalidHandle {
		t.store.Publish(newH)
		t.store.AppendGenerated(newH)
		t.updateChunkLighting(newChunk)
	} else {
		t.store.Unpublish(ci)
	}

	t.regenerated++
	job.Finish()
}

// dispatchJobs walks the priority list and starts extraction jobs for
// missing or dirty chunks until job slots, pool workers or chunk records
// run out.
func (t *Terrain) dispatchJobs() {
	for si := 0; si < len(t.sorts); si++ {
		cs := t.sorts[si]
		ci := ChunkIndex(cs.pos)

		h := cs.h
		if h == InvalidHandle {
			// Pick up chunks that finished generating after sorting.
			h = t.store.Get(ci)
		}
		var chunk *Chunk
		if h != InvalidHandle {
			chunk = t.store.Chunk(h)
		}

		if chunk != nil && !chunk.geoDirty {
			continue
		}

		if t.pool.Size() > 0 && t.pool.IdleCount() == 0 {
			break
		}
		job := t.freeJob()
		if job == nil {
			break
		}
		if t.jobForChunk(cs.pos) != nil {
			// Already queued.
			continue
		}

		chunkDirty := false
		if chunk != nil && chunk.geoDirty {
			// Clear the flag before dispatch, not at completion, so
			// edits landing during the job re-dirty the chunk.
			chunk.geoDirty = false
			chunkDirty = true
		}

		// A dirty refresh still extracts into a fresh record; the old
		// chunk keeps rendering until the swap at publication.
		newH := t.store.Allocate(cs.pos)
		if newH == InvalidHandle {
			newH = t.stealChunk(cs, chunkDirty)
		}
		if newH == InvalidHandle {
			// The highest-priority chunks are all loaded already.
			t.log.Debug("chunk loading reached equilibrium")
			break
		}

		job.StartNew(t.world, newH, t.store.Chunk(newH))
		if t.pool.Size() > 0 {
			t.pool.Push(job.Do)
		} else {
			job.Do()
			break
		}
	}
}

// stealChunk frees the lowest-priority generated chunk to make room for
// cs. Only the first live entry from the back of the sort list is
// considered; it is stolen when cs is a dirty refresh or strictly more
// important. Returns the reallocated handle or InvalidHandle at
// equilibrium.
func (t *Terrain) stealChunk(cs chunkSort, chunkDirty bool) Handle {
	for i := len(t.sorts) - 1; i >= 0; i-- {
		other := t.sorts[i]
		if other.h == InvalidHandle {
			t.sorts = append(t.sorts[:i], t.sorts[i+1:]...)
			continue
		}
		if chunkDirty || other.score > cs.score {
			t.store.Free(other.h)
			t.sorts = append(t.sorts[:i], t.sorts[i+1:]...)
			return t.store.Allocate(cs.pos)
		}
		break
	}
	return InvalidHandle
}

// freeJob returns an unoccupied job slot, or nil.
func (t *Terrain) freeJob() *Job {
	for _, job := range t.jobs {
		if !job.HasJob() {
			return job
		}
	}
	return nil
}

// jobForChunk returns the job bound to pos, or nil.
func (t *Terrain) jobForChunk(pos math3.Int3) *Job {
	for _, job := range t.jobs {
		if job.HasChunk(pos) {
			return job
		}
	}
	return nil
}

// updateChunkLighting fills the chunk's light grid. Sky occlusion is not
// computed; every voxel gets the same attenuated sky term.
func (t *Terrain) updateChunkLighting(chunk *Chunk) {
	light := SkyBrightness * 0.7125 * 0.85
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				chunk.l[x][y][z] = light
			}
		}
	}
	chunk.lightDirty = false
}

// Render hands the visible chunk set to the renderer collaborator in
// priority order.
func (t *Terrain) Render(viewProj mgl32.Mat4) {
	if !t.cfg.Render || t.renderer == nil {
		return
	}

	coords := make([]math3.Int3, 0, len(t.sorts))
	for i := range t.sorts {
		if len(coords) >= maxActiveChunks {
			break
		}
		h := t.sorts[i].h
		if h == InvalidHandle {
			continue
		}
		chunk := t.store.Chunk(h)
		if len(chunk.vertices) == 0 {
			continue
		}
		coords = append(coords, chunk.pos)
	}
	t.renderer.DrawChunks(viewProj, coords)
}
