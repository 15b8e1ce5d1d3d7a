package terrain

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/regolith/pkg/math3"
)

// JobPool is the worker-pool collaborator the scheduler borrows. A pool
// of size zero makes the scheduler run one extraction inline per frame.
type JobPool interface {
	// Push enqueues a run-to-completion task.
	Push(task func())
	// IdleCount returns how many workers are neither running nor have a
	// task queued for them.
	IdleCount() int
	// Size returns the number of workers.
	Size() int
}

// Renderer is the rendering collaborator. The engine pushes packed vertex
// and index buffers keyed by chunk coordinate as meshes become ready, and
// hands over the visible set each frame.
type Renderer interface {
	UploadChunk(pos math3.Int3, vertexBytes, indexBytes []byte)
	DrawChunks(viewProj mgl32.Mat4, chunks []math3.Int3)
}

// zeroPool is the stand-in collaborator when no pool is configured.
type zeroPool struct{}

func (zeroPool) Push(func()) { panic("terrain: push on zero-size pool") }

func (zeroPool) IdleCount() int { return 0 }

func (zeroPool) Size() int { return 0 }
