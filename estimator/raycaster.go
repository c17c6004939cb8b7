package estimator

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sraesch/raycasting-occlusion/index"
	"github.com/sraesch/raycasting-occlusion/log"
	"github.com/sraesch/raycasting-occlusion/sampler"
)

// Intersection epsilon for the ray queries.
const defaultRayEpsilon = 1e-7

// Raycaster estimates occlusion by tracing every sample ray through the
// spatial index and recording the nearest hit.
type Raycaster struct {
	logger log.Logger

	index   *index.Index
	workers int
	eps     float32
}

// NewRaycaster creates a ray-cast estimator over a built index. workers
// <= 0 selects one worker per CPU.
func NewRaycaster(ix *index.Index, workers int) *Raycaster {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Raycaster{
		logger:  log.New("raycaster"),
		index:   ix,
		workers: workers,
		eps:     defaultRayEpsilon,
	}
}

// Name identifies the strategy.
func (r *Raycaster) Name() string {
	return "raycast"
}

// Estimate traces the sample sequence. The frame is partitioned into
// horizontal bands, each owned by exactly one worker, so no two goroutines
// touch the same pixel.
func (r *Raycaster) Estimate(smp *sampler.Sampler, frame *Frame) (Result, error) {
	view := smp.View()
	if frame.Width != view.Width || frame.Height != view.Height {
		return Result{}, fmt.Errorf("frame size %dx%d does not match view size %dx%d",
			frame.Width, frame.Height, view.Width, view.Height)
	}
	frame.Clear()

	start := time.Now()
	viewProj := view.ViewProj()

	numWorkers := r.workers
	if numWorkers > frame.Height {
		numWorkers = frame.Height
	}
	rowsPerBand := (frame.Height + numWorkers - 1) / numWorkers

	type bandResult struct {
		stats      TestStats
		footprints []int
	}
	results := make([]bandResult, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			y0 := w * rowsPerBand
			y1 := y0 + rowsPerBand
			if y1 > frame.Height {
				y1 = frame.Height
			}

			var stats TestStats
			footprints := make([]int, r.index.NumObjects)
			marks := make([]bool, r.index.NumObjects)
			var hitIDs []uint32

			for y := y0; y < y1; y++ {
				for x := 0; x < frame.Width; x++ {
					pixel := y*frame.Width + x
					s := smp.At(pixel)

					hit, tested, ok := r.index.NearestTested(s.Ray, r.eps, s.MaxT)
					stats.NumTriangles += tested
					if ok {
						frame.IDs[pixel] = hit.ObjectID
						if frame.Depths != nil {
							// Window depth of the hit point, matching the
							// normalized depth a rasterized frame carries.
							p := viewProj.Mul4x1(s.Ray.PointAt(hit.Distance).Vec4(1))
							frame.Depths[pixel] = (p[2]/p[3] + 1) * 0.5
						}
					}

					hitIDs = r.index.Footprint(s.Ray, r.eps, s.MaxT, marks, hitIDs[:0])
					for _, id := range hitIDs {
						footprints[id]++
					}
				}
			}

			results[w] = bandResult{stats: stats, footprints: footprints}
		}(w)
	}
	wg.Wait()

	res := Result{Footprints: make([]int, r.index.NumObjects)}
	for _, br := range results {
		res.Stats.Add(br.stats)
		for id, n := range br.footprints {
			res.Footprints[id] += n
		}
	}

	r.logger.Debugf("cast %d rays over %d workers in %d ms",
		smp.Len(), numWorkers, time.Since(start).Nanoseconds()/1e6)
	return res, nil
}
