// Package workerpool provides the goroutine pool the terrain scheduler
// borrows for chunk extraction. It implements terrain.JobPool: tasks are
// run-to-completion units, and the idle count only reaches the pool size
// once every pushed task has finished, which is what gates SDF commits.
package workerpool

import (
	"sync"
	"sync/atomic"

	"github.com/chazu/regolith/pkg/terrain"
)

// Compile-time interface check.
var _ terrain.JobPool = (*Pool)(nil)

// Pool runs tasks on a fixed set of worker goroutines.
type Pool struct {
	size  int
	tasks chan func()
	busy  atomic.Int32
	wg    sync.WaitGroup
	stop  sync.Once
}

// New starts a pool of n workers. n of zero is allowed and produces a
// pool that accepts no work.
func New(n int) *Pool {
	p := &Pool{
		size:  n,
		tasks: make(chan func(), 4*n+1),
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
		p.busy.Add(-1)
	}
}

// Push enqueues a task. The task counts against the idle workers from the
// moment it is enqueued, not when a worker picks it up, so IdleCount
// never over-reports while work is outstanding.
func (p *Pool) Push(task func()) {
	if p.size == 0 {
		panic("workerpool: push on empty pool")
	}
	p.busy.Add(1)
	p.tasks <- task
}

// IdleCount returns the number of workers with no running or queued task.
func (p *Pool) IdleCount() int {
	idle := p.size - int(p.busy.Load())
	if idle < 0 {
		return 0
	}
	return idle
}

// Size returns the worker count.
func (p *Pool) Size() int { return p.size }

// Stop shuts the pool down. With wait set, Stop blocks until queued tasks
// have drained; pushing after Stop panics.
func (p *Pool) Stop(wait bool) {
	p.stop.Do(func() { close(p.tasks) })
	if wait {
		p.wg.Wait()
	}
}
