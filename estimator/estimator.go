// Package estimator implements the two occlusion estimation strategies of
// the engine. Both fill the same frame representation from the same sample
// sequence, so their results can be aggregated and compared uniformly.
package estimator

import "github.com/sraesch/raycasting-occlusion/sampler"

// TestStats accumulates counters about one estimation run.
type TestStats struct {
	// Triangles the run had to process, i.e. that could not be avoided
	// through the spatial index or viewport clipping.
	NumTriangles int
}

// Add merges the counters of rhs into the stats.
func (s *TestStats) Add(rhs TestStats) {
	s.NumTriangles += rhs.NumTriangles
}

// Result is the outcome of one estimation run over a sample sequence.
type Result struct {
	Stats TestStats

	// Per-object sample counts of the unobstructed footprint: the number
	// of samples whose ray meets the object's geometry at all, visible
	// or not. Indexed by object id.
	Footprints []int
}

// Estimator computes an occlusion estimate for a view. Implementations
// fill the frame's id buffer (and depth buffer, if present) and report
// per-object footprints.
type Estimator interface {
	// Name identifies the strategy in logs and output paths.
	Name() string

	// Estimate runs the strategy over the sample sequence, filling the
	// frame. The frame resolution must match the sampler's view.
	Estimate(smp *sampler.Sampler, frame *Frame) (Result, error)
}
