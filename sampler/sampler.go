package sampler

import "github.com/sraesch/raycasting-occlusion/types"

// Sample is one sampling location of a view: the pixel it belongs to, the
// primary ray through it and the distance cap at the far plane.
type Sample struct {
	X, Y int

	Ray  types.Ray
	MaxT float32

	Weight float32
}

// Sampler enumerates the samples of a view in row-major order. The
// sequence is a pure function of the view and the recorded jitter seed:
// repeated enumeration, random access via At and enumeration after Reset
// all yield identical samples.
type Sampler struct {
	view *View

	jitter bool
	seed   uint64

	pos int
}

// New creates a sampler with one sample per pixel center.
func New(view *View) *Sampler {
	return &Sampler{view: view}
}

// NewJittered creates a sampler whose in-pixel offsets are derived from
// the seed. The seed is recorded so the sequence can be reproduced.
func NewJittered(view *View, seed uint64) *Sampler {
	return &Sampler{view: view, jitter: true, seed: seed}
}

// View returns the view the samples are drawn from.
func (s *Sampler) View() *View {
	return s.view
}

// Len returns the number of samples in the sequence.
func (s *Sampler) Len() int {
	return s.view.Width * s.view.Height
}

// Seed returns the recorded jitter seed and whether jitter is active.
func (s *Sampler) Seed() (uint64, bool) {
	return s.seed, s.jitter
}

// At returns sample i of the sequence. Safe for concurrent use.
func (s *Sampler) At(i int) Sample {
	x := i % s.view.Width
	y := i / s.view.Width

	var ox, oy float32 = 0.5, 0.5
	if s.jitter {
		ox = hashToUnit(s.seed, uint64(i)*2)
		oy = hashToUnit(s.seed, uint64(i)*2+1)
	}

	ray, maxT := s.view.Ray(float32(x)+ox, float32(y)+oy)
	return Sample{X: x, Y: y, Ray: ray, MaxT: maxT, Weight: 1}
}

// Next returns the next sample, or false when the sequence is exhausted.
func (s *Sampler) Next() (Sample, bool) {
	if s.pos >= s.Len() {
		return Sample{}, false
	}
	smp := s.At(s.pos)
	s.pos++
	return smp, true
}

// Reset rewinds the sequence to its first sample.
func (s *Sampler) Reset() {
	s.pos = 0
}

// Map a (seed, counter) pair to [0, 1). Splitmix64 finalizer, so nearby
// counters decorrelate fully.
func hashToUnit(seed, n uint64) float32 {
	x := seed + n*0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return float32(x>>40) / float32(1<<24)
}
