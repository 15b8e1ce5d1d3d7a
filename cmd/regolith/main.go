// Command regolith streams a procedurally generated terrain headlessly
// and reports chunk statistics. It exists to exercise the engine without
// a window or GPU: build a height-map field, carve a cavity, then run
// scheduler frames until generation settles.
package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/chazu/regolith/pkg/math3"
	"github.com/chazu/regolith/pkg/sdf"
	"github.com/chazu/regolith/pkg/terrain"
	"github.com/chazu/regolith/pkg/workerpool"
)

func main() {
	workers := flag.Int("workers", runtime.NumCPU()*3/4, "extraction worker count, 0 runs inline")
	frames := flag.Int("frames", 400, "scheduler frames to run")
	radius := flag.Float64("radius", 160, "view radius in voxels")
	seed := flag.Int64("seed", 1, "terrain noise seed")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pool := workerpool.New(*workers)
	defer pool.Stop(true)

	eng := terrain.New(terrain.Config{
		Pool:          pool,
		ChunkPoolSize: 512,
		Log:           log,
	})
	defer eng.Terminate()

	hills := sdf.NewHeightFieldNoise(*seed, 257, 257, sdf.NoiseParams{
		Amplitude:   24,
		Scale:       80,
		Octaves:     4,
		Lacunarity:  2,
		Persistence: 0.5,
	})

	world := eng.SDF()
	ground := world.AddHeightMap(hills)
	world.SetTranslation(ground, math3.Vec3{-128, -128, 0})

	cavity := world.AddSphere(12)
	world.SetTranslation(cavity, math3.Vec3{0, 0, 24})
	world.SetBlend(cavity, sdf.BlendSubtraction, 0)

	viewer := math3.Vec3{0, 0, 48}

	start := time.Now()
	for frame := 0; frame < *frames; frame++ {
		eng.Update(viewer, float32(*radius))
		if frame%50 == 49 {
			log.Info("streaming",
				"frame", frame+1,
				"chunks", eng.Store().Len(),
				"jobs_done", eng.RegeneratedCount(),
			)
		}
	}

	hit := eng.Raycast(math3.Vec3{0.5, 0.5, 200}, math3.Vec3{0, 0, -400})
	log.Info("done",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"chunks", eng.Store().Len(),
		"jobs_done", eng.RegeneratedCount(),
		"ray_hit", hit.Hit,
		"ray_dist", hit.Distance,
	)
}
