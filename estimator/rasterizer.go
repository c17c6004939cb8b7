package estimator

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/sraesch/raycasting-occlusion/log"
	"github.com/sraesch/raycasting-occlusion/sampler"
	"github.com/sraesch/raycasting-occlusion/scene"
	"github.com/sraesch/raycasting-occlusion/types"
)

// Triangles whose clip-space w drops to or below this value are cut; they
// cross the camera plane and have no meaningful window projection.
const wEpsilon = 1e-5

// DepthValue is the quantized storage type of the rasterizer depth buffer.
// uint16 trades depth resolution for footprint, uint32 is the default.
type DepthValue interface {
	~uint16 | ~uint32
}

func quantizeDepth[D DepthValue](depth float32) D {
	max := ^D(0)
	// depth 1.0 must saturate: converting 1.0 * float32(max) back to D
	// overflows for uint32 and would wrap the far plane to depth zero.
	if depth >= 1 {
		return max
	}
	return D(depth * float32(max))
}

func depthToF32[D DepthValue](d D) float32 {
	max := ^D(0)
	return float32(d) / float32(max)
}

// Rasterizer estimates occlusion by drawing every triangle of the scene
// into a depth-tested id buffer, scanline by scanline.
type Rasterizer[D DepthValue] struct {
	logger log.Logger

	sc      *scene.Scene
	workers int
}

// NewRasterizer creates a rasterization estimator over a scene. workers
// <= 0 selects one worker per CPU.
func NewRasterizer[D DepthValue](sc *scene.Scene, workers int) *Rasterizer[D] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Rasterizer[D]{
		logger:  log.New("rasterizer"),
		sc:      sc,
		workers: workers,
	}
}

// Name identifies the strategy.
func (r *Rasterizer[D]) Name() string {
	return "rasterize"
}

// Estimate rasterizes the scene into the frame. The frame is partitioned
// into horizontal bands, each owned by exactly one worker: every worker
// streams the full triangle sequence and clips its scanlines to the band,
// so bands never share pixels and need no synchronization.
//
// The sample positions themselves are implicit: rasterization covers the
// pixel centers the non-jittered sampler enumerates. A jittered sampler
// estimates the same frame up to sub-pixel differences.
func (r *Rasterizer[D]) Estimate(smp *sampler.Sampler, frame *Frame) (Result, error) {
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

	bands := make([]*rasterBand[D], numWorkers)

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

			band := newRasterBand[D](frame, y0, y1, len(r.sc.Objects))
			bands[w] = band

			st := scene.Stream(r.sc)
			for {
				wt, ok := st.Next()
				if !ok {
					break
				}
				band.numTriangles++

				win0, ok0 := projectWindow(viewProj, frame.Width, frame.Height, wt.P0)
				win1, ok1 := projectWindow(viewProj, frame.Width, frame.Height, wt.P1)
				win2, ok2 := projectWindow(viewProj, frame.Width, frame.Height, wt.P2)
				if !ok0 || !ok1 || !ok2 {
					continue
				}

				band.rasterize(wt.ObjectID, win0, win1, win2)
			}
			band.skipped = st.Skipped()
		}(w)
	}
	wg.Wait()

	res := Result{Footprints: make([]int, len(r.sc.Objects))}
	for _, band := range bands {
		for id, n := range band.footprints {
			res.Footprints[id] += n
		}
	}
	// Every band streams the same triangle sequence, so one band's count
	// is the processed total.
	res.Stats.NumTriangles = bands[0].numTriangles
	if skipped := bands[0].skipped; skipped > 0 {
		r.logger.Warningf("skipped %d degenerate triangles", skipped)
	}

	r.logger.Debugf("rasterized %d triangles over %d workers in %d ms",
		res.Stats.NumTriangles, numWorkers, time.Since(start).Nanoseconds()/1e6)
	return res, nil
}

// Map a world position to window coordinates: x, y in pixels with the
// origin at the top-left pixel center, z the normalized depth in [0, 1].
// Reports false for positions on or behind the camera plane.
func projectWindow(viewProj types.Mat4, width, height int, p types.Vec3) (types.Vec3, bool) {
	c := viewProj.Mul4x1(p.Vec4(1))
	if c[3] <= wEpsilon {
		return types.Vec3{}, false
	}

	ndc := c.Mul(1.0 / c[3]).Vec3()
	win := types.XYZ(
		(ndc[0]*0.5+0.5)*float32(width)-0.5,
		(0.5-ndc[1]*0.5)*float32(height)-0.5,
		(ndc[2]+1)*0.5,
	)
	if !win.IsFinite() {
		return types.Vec3{}, false
	}
	return win, true
}

// One horizontal band of the frame, owned by a single worker. The id and
// depth buffers of the frame are written directly since bands are
// disjoint; the quantized depth buffer and the coverage stamps are
// band-local.
type rasterBand[D DepthValue] struct {
	frame *Frame

	// Owned row range [y0, y1).
	y0, y1 int

	// Quantized depths of the owned rows.
	depth []D

	// Per-pixel stamp of the last object that covered it, for footprint
	// deduplication. Valid because the triangle stream is per-object
	// contiguous.
	stamp []uint32

	footprints   []int
	numTriangles int
	skipped      int
}

func newRasterBand[D DepthValue](frame *Frame, y0, y1, numObjects int) *rasterBand[D] {
	size := (y1 - y0) * frame.Width

	band := &rasterBand[D]{
		frame:      frame,
		y0:         y0,
		y1:         y1,
		depth:      make([]D, size),
		stamp:      make([]uint32, size),
		footprints: make([]int, numObjects),
	}
	for i := range band.depth {
		band.depth[i] = ^D(0)
	}
	for i := range band.stamp {
		band.stamp[i] = NoObject
	}
	return band
}

// Rasterize the triangle given in window coordinates. The vertices are
// ordered by ascending y and handed to fillTriangle.
func (b *rasterBand[D]) rasterize(id uint32, p0, p1, p2 types.Vec3) {
	switch {
	case p0[1] <= p1[1] && p0[1] <= p2[1]:
		if p1[1] <= p2[1] {
			b.fillTriangle(id, p0, p1, p2)
		} else {
			b.fillTriangle(id, p0, p2, p1)
		}
	case p1[1] <= p0[1] && p1[1] <= p2[1]:
		if p0[1] <= p2[1] {
			b.fillTriangle(id, p1, p0, p2)
		} else {
			b.fillTriangle(id, p1, p2, p0)
		}
	default:
		if p0[1] <= p1[1] {
			b.fillTriangle(id, p2, p0, p1)
		} else {
			b.fillTriangle(id, p2, p1, p0)
		}
	}
}

// Fill a triangle whose vertices are sorted by ascending y. General
// triangles are split at the middle vertex into a bottom-flat and a
// top-flat half. Coverage follows pixel centers exactly: a pixel is drawn
// iff its center lies inside the triangle, which is the same rule the ray
// sampler applies, so the two estimators see identical silhouettes.
func (b *rasterBand[D]) fillTriangle(id uint32, p0, p1, p2 types.Vec3) {
	y0, y1, y2 := p0[1], p1[1], p2[1]

	switch {
	case y0 == y2:
		// The whole triangle collapses to one horizontal line.
		y := int(math32.Ceil(y0))
		if float32(y) <= y2 && y >= 0 && y < b.frame.Height {
			if p0[0] <= p2[0] {
				b.drawScanline(id, y, p0[0], p2[0], p0[2], p2[2])
			} else {
				b.drawScanline(id, y, p2[0], p0[0], p2[2], p0[2])
			}
		}

	case y0 == y1:
		b.fillTopFlat(id, p0, p1, p2)

	case y1 == y2:
		b.fillBottomFlat(id, p0, p1, p2)

	default:
		lambda := (y1 - y0) / (y2 - y0)
		p3 := types.XYZ(
			p0[0]+lambda*(p2[0]-p0[0]),
			y1,
			p0[2]+lambda*(p2[2]-p0[2]),
		)

		b.fillBottomFlat(id, p0, p1, p3)
		b.fillTopFlat(id, p1, p3, p2)
	}
}

// Fill a triangle with a horizontal bottom edge: p1 and p2 share the same
// y, p0 lies above them.
func (b *rasterBand[D]) fillBottomFlat(id uint32, p0, p1, p2 types.Vec3) {
	maxY := float32(b.frame.Height - 1)

	if p0[1] == p1[1] {
		return
	}

	y0, y1 := p0[1], p2[1]
	if y1 < 0 || y0 > maxY {
		return
	}

	y0m := int(math32.Max(math32.Ceil(y0), 0))
	y1m := int(math32.Min(math32.Floor(y1), maxY))

	leftX, rightX := p1[0], p2[0]
	leftDepth, rightDepth := p1[2], p2[2]
	if rightX < leftX {
		leftX, rightX = rightX, leftX
		leftDepth, rightDepth = rightDepth, leftDepth
	}

	for y := y0m; y <= y1m; y++ {
		yf := clampF32((float32(y)-y0)/(y1-y0), 0, 1)

		x0 := p0[0] + yf*(leftX-p0[0])
		x1 := p0[0] + yf*(rightX-p0[0])
		depth0 := p0[2] + yf*(leftDepth-p0[2])
		depth1 := p0[2] + yf*(rightDepth-p0[2])

		b.drawScanline(id, y, x0, x1, depth0, depth1)
	}
}

// Fill a triangle with a horizontal top edge: p0 and p1 share the same y,
// p2 lies below them.
func (b *rasterBand[D]) fillTopFlat(id uint32, p0, p1, p2 types.Vec3) {
	maxY := float32(b.frame.Height - 1)

	if p2[1] == p0[1] {
		return
	}

	y0, y1 := p0[1], p2[1]
	if y1 < 0 || y0 > maxY {
		return
	}

	y0m := int(math32.Max(math32.Ceil(y0), 0))
	y1m := int(math32.Min(math32.Floor(y1), maxY))

	leftX, rightX := p0[0], p1[0]
	leftDepth, rightDepth := p0[2], p1[2]
	if rightX < leftX {
		leftX, rightX = rightX, leftX
		leftDepth, rightDepth = rightDepth, leftDepth
	}

	for y := y0m; y <= y1m; y++ {
		yf := clampF32((y1-float32(y))/(y1-y0), 0, 1)

		x0 := p2[0] + yf*(leftX-p2[0])
		x1 := p2[0] + yf*(rightX-p2[0])
		depth0 := p2[2] + yf*(leftDepth-p2[2])
		depth1 := p2[2] + yf*(rightDepth-p2[2])

		b.drawScanline(id, y, x0, x1, depth0, depth1)
	}
}

// Draw one horizontal line at row y from x0 to x1 with linearly
// interpolated depth. Rows outside the band are dropped here, which is
// the only clipping the band discipline needs.
func (b *rasterBand[D]) drawScanline(id uint32, y int, x0, x1, depth0, depth1 float32) {
	if y < b.y0 || y >= b.y1 {
		return
	}

	maxX := float32(b.frame.Width - 1)
	if x1 < 0 || x0 > maxX {
		return
	}

	x0m := int(math32.Max(math32.Ceil(x0), 0))
	x1m := int(math32.Min(math32.Floor(x1), maxX))

	var dd float32
	if x1 > x0 {
		dd = (depth1 - depth0) / (x1 - x0)
	}

	for x := x0m; x <= x1m; x++ {
		depth := depth0 + (float32(x)-x0)*dd
		b.drawPixel(id, x, y, depth)
	}
}

// Draw a single pixel: coverage is stamped for the footprint regardless of
// the depth test, the id buffer only changes when the depth test passes.
func (b *rasterBand[D]) drawPixel(id uint32, x, y int, depth float32) {
	if math32.IsNaN(depth) || depth < 0 || depth > 1 {
		return
	}

	bandIdx := (y-b.y0)*b.frame.Width + x
	if b.stamp[bandIdx] != id {
		b.stamp[bandIdx] = id
		b.footprints[id]++
	}

	d := quantizeDepth[D](depth)
	if d < b.depth[bandIdx] {
		b.depth[bandIdx] = d

		frameIdx := y*b.frame.Width + x
		b.frame.IDs[frameIdx] = id
		if b.frame.Depths != nil {
			b.frame.Depths[frameIdx] = depthToF32(d)
		}
	}
}

func clampF32(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
