package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/chazu/regolith/pkg/math3"
	"github.com/chazu/regolith/pkg/terrain"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestPoolRunsTasks(t *testing.T) {
	p := New(2)
	defer p.Stop(true)

	if p.Size() != 2 {
		t.Fatalf("size = %d, want 2", p.Size())
	}
	if p.IdleCount() != 2 {
		t.Fatalf("fresh pool idle = %d, want 2", p.IdleCount())
	}

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		p.Push(func() { ran.Add(1) })
	}

	waitFor(t, 5*time.Second, func() bool { return ran.Load() == 20 })
	waitFor(t, 5*time.Second, func() bool { return p.IdleCount() == 2 })
}

func TestPoolIdleAccountsQueuedWork(t *testing.T) {
	p := New(1)
	defer p.Stop(true)

	release := make(chan struct{})
	p.Push(func() { <-release })
	p.Push(func() {})

	// One running, one queued: no worker may be reported idle.
	if p.IdleCount() != 0 {
		t.Errorf("idle = %d with work outstanding", p.IdleCount())
	}

	close(release)
	waitFor(t, 5*time.Second, func() bool { return p.IdleCount() == 1 })
}

func TestZeroPool(t *testing.T) {
	p := New(0)
	if p.Size() != 0 || p.IdleCount() != 0 {
		t.Errorf("zero pool size/idle = %d/%d", p.Size(), p.IdleCount())
	}
	defer func() {
		if recover() == nil {
			t.Error("push on a zero pool should panic")
		}
	}()
	p.Push(func() {})
}

func TestPoolDrivesTerrain(t *testing.T) {
	p := New(2)
	defer p.Stop(true)

	tr := terrain.New(terrain.Config{Pool: p, ChunkPoolSize: 64})
	defer tr.Terminate()

	w := tr.SDF()
	slab := w.AddBox(math3.Vec3{60, 60, 12})
	w.SetTranslation(slab, math3.Vec3{5, 5, 0})

	viewer := math3.Vec3{5, 5, 20}
	waitFor(t, 30*time.Second, func() bool {
		tr.Update(viewer, 50)
		vc := tr.Store().CountAt(math3.Int3{})
		return vc != terrain.CountEmpty && vc != terrain.CountDirty && vc != terrain.CountInterior
	})

	rc := tr.Raycast(math3.Vec3{15, 5, 20}, math3.Vec3{0, 0, -30})
	if !rc.Hit {
		t.Fatal("ground should be hit after streaming with a pool")
	}
}
