package index

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sraesch/raycasting-occlusion/log"
	"github.com/sraesch/raycasting-occlusion/scene"
	"github.com/sraesch/raycasting-occlusion/types"
)

const (
	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step (calculated as side length / (1024 / depth+1))
	// is less than this threshold the builder will not evaluate split
	// candidates.
	minSplitStep float32 = 1e-5
)

// BuildOptions configure the index construction.
type BuildOptions struct {
	// Memory cap for the finished index. The coarse object-level working
	// set must fit as well. Zero disables the budget.
	BudgetBytes int64

	// Leaf size threshold: triangle runs at or below this length become
	// leaves. Trades traversal depth against per-leaf scan cost.
	MaxLeafSize int

	// Upper bound on the number of triangles held in memory at once
	// while a partition is refined. Partitions above this size are split
	// further on object level before any triangle is materialized.
	MaxPartitionTris int
}

// DefaultBuildOptions returns the default construction parameters.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MaxLeafSize:      8,
		MaxPartitionTris: 64 * 1024,
	}
}

// A bounded item partitioned by the builder: either one object (weighted
// by its triangle count) or one triangle (weight 1).
type buildItem struct {
	bounds types.AABB
	center types.Vec3
	weight int
	ref    int32
}

type splitCandidate struct {
	axis                  int
	point                 float32
	leftCount, rightCount int
	score                 float32
}

type buildStats struct {
	nodes      int
	leafs      int
	maxDepth   int
	partitions int
}

type builder struct {
	logger log.Logger

	sc   *scene.Scene
	opts BuildOptions

	// The hierarchy under construction, stored as contiguous lists.
	nodes []Node
	tris  []Tri

	usedBytes int64

	// Score result chan.
	scoreChan chan splitCandidate

	stats buildStats
}

// Build constructs the spatial index for the scene.
//
// Construction runs in two phases so that peak memory stays bounded for
// scenes whose triangle set does not fit in memory at once: the top of the
// hierarchy is partitioned on object-level bounding boxes (a working set
// proportional to the object count), then triangles are streamed partition
// by partition to refine the leaves. Splits are scored with the surface
// area heuristic: score = weight * bbox face area. The builder is
// deterministic: the same scene and options always produce the same
// hierarchy.
func Build(sc *scene.Scene, opts BuildOptions) (*Index, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxLeafSize <= 0 {
		opts.MaxLeafSize = DefaultBuildOptions().MaxLeafSize
	}
	if opts.MaxPartitionTris <= 0 {
		opts.MaxPartitionTris = DefaultBuildOptions().MaxPartitionTris
	}

	// The coarse object-level structure is the minimum the build needs;
	// a budget below it cannot be honored at all.
	coarse := int64(len(sc.Objects)) * objEntryBytes
	if opts.BudgetBytes > 0 && coarse > opts.BudgetBytes {
		return nil, fmt.Errorf("%w: object-level partition needs %d bytes, budget is %d",
			ErrResourceExhausted, coarse, opts.BudgetBytes)
	}

	b := &builder{
		logger:    log.New("indexBuilder"),
		sc:        sc,
		opts:      opts,
		scoreChan: make(chan splitCandidate),
	}

	items := make([]buildItem, 0, len(sc.Objects))
	for i := range sc.Objects {
		bounds := sc.ObjectBounds(uint32(i))
		if bounds.IsEmpty() {
			continue
		}
		items = append(items, buildItem{
			bounds: bounds,
			center: bounds.Center(),
			weight: sc.ObjectTriangleCount(uint32(i)),
			ref:    int32(i),
		})
	}

	start := time.Now()
	if len(items) > 0 {
		if _, err := b.partitionObjects(items, 0); err != nil {
			return nil, err
		}
	}
	b.logger.Debugf(
		"index build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, partitions: %d, bytes: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs, b.stats.partitions, b.usedBytes,
	)

	return &Index{
		Nodes:       b.nodes,
		Tris:        b.tris,
		NumObjects:  len(sc.Objects),
		BudgetBytes: opts.BudgetBytes,
	}, nil
}

// Charge bytes against the budget. Called only from the build goroutine,
// so merging the accounting needs no further synchronization.
func (b *builder) account(delta int64) error {
	b.usedBytes += delta
	if b.opts.BudgetBytes > 0 && b.usedBytes > b.opts.BudgetBytes {
		return fmt.Errorf("%w: index exceeds budget of %d bytes", ErrResourceExhausted, b.opts.BudgetBytes)
	}
	return nil
}

// Partition a set of objects and return the subtree root index. Once a
// group is small enough its triangles are streamed in and refined.
func (b *builder) partitionObjects(items []buildItem, depth int) (int32, error) {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	triCount := 0
	bounds := types.NewAABB()
	for _, it := range items {
		triCount += it.weight
		bounds.ExtendBox(it.bounds)
	}

	if len(items) == 1 || triCount <= b.opts.MaxPartitionTris {
		return b.refinePartition(items, depth)
	}

	var left, right []buildItem
	if axis, point, ok := b.chooseSplit(items, bounds, depth); ok {
		for _, it := range items {
			if it.center[axis] < point {
				left = append(left, it)
			} else {
				right = append(right, it)
			}
		}
	}
	if len(left) == 0 || len(right) == 0 {
		// Degenerate distribution: fall back to a median split along the
		// longest axis so the group keeps shrinking.
		left, right = medianSplit(items, bounds)
	}

	if err := b.account(nodeBytes); err != nil {
		return 0, err
	}
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Bounds: bounds, Left: -1, Right: -1})
	b.stats.nodes++

	leftIndex, err := b.partitionObjects(left, depth+1)
	if err != nil {
		return 0, err
	}
	rightIndex, err := b.partitionObjects(right, depth+1)
	if err != nil {
		return 0, err
	}
	b.nodes[nodeIndex].Left = leftIndex
	b.nodes[nodeIndex].Right = rightIndex

	return nodeIndex, nil
}

// Stream the triangles of the given object group into memory and build the
// triangle-level subtree for it.
func (b *builder) refinePartition(items []buildItem, depth int) (int32, error) {
	b.stats.partitions++

	ids := make([]uint32, len(items))
	for i, it := range items {
		ids[i] = uint32(it.ref)
	}

	st := scene.StreamObjects(b.sc, ids)
	var tris []scene.WorldTriangle
	for {
		wt, ok := st.Next()
		if !ok {
			break
		}
		tris = append(tris, wt)
	}
	if st.Skipped() > 0 {
		b.logger.Warningf("skipped %d degenerate triangles while refining partition", st.Skipped())
	}

	return b.partitionTris(tris, depth)
}

// Partition a triangle work list and return the subtree root index.
func (b *builder) partitionTris(tris []scene.WorldTriangle, depth int) (int32, error) {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	bounds := types.NewAABB()
	for i := range tris {
		bounds.ExtendBox(tris[i].Bounds())
	}

	if len(tris) <= b.opts.MaxLeafSize {
		return b.createLeaf(bounds, tris)
	}

	items := make([]buildItem, len(tris))
	for i := range tris {
		triBounds := tris[i].Bounds()
		items[i] = buildItem{
			bounds: triBounds,
			center: tris[i].Center(),
			weight: 1,
			ref:    int32(i),
		}
	}

	axis, point, ok := b.chooseSplit(items, bounds, depth)
	if !ok {
		// No split improves on the node score; keep the run as one leaf.
		return b.createLeaf(bounds, tris)
	}

	var left, right []scene.WorldTriangle
	for i := range tris {
		if items[i].center[axis] < point {
			left = append(left, tris[i])
		} else {
			right = append(right, tris[i])
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.createLeaf(bounds, tris)
	}

	if err := b.account(nodeBytes); err != nil {
		return 0, err
	}
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Bounds: bounds, Left: -1, Right: -1})
	b.stats.nodes++

	leftIndex, err := b.partitionTris(left, depth+1)
	if err != nil {
		return 0, err
	}
	rightIndex, err := b.partitionTris(right, depth+1)
	if err != nil {
		return 0, err
	}
	b.nodes[nodeIndex].Left = leftIndex
	b.nodes[nodeIndex].Right = rightIndex

	return nodeIndex, nil
}

// Set up a leaf node holding the given triangle run and return its index.
func (b *builder) createLeaf(bounds types.AABB, tris []scene.WorldTriangle) (int32, error) {
	if err := b.account(nodeBytes + int64(len(tris))*triBytes); err != nil {
		return 0, err
	}

	first := int32(len(b.tris))
	for i := range tris {
		b.tris = append(b.tris, Tri{
			P0:       tris[i].P0,
			P1:       tris[i].P1,
			P2:       tris[i].P2,
			ObjectID: tris[i].ObjectID,
		})
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Bounds:   bounds,
		Left:     -1,
		Right:    -1,
		FirstTri: first,
		NumTris:  int32(len(tris)),
	})
	b.stats.nodes++
	b.stats.leafs++

	return nodeIndex, nil
}

// Try partitioning along each axis and select the split with the best
// score. Candidates are scored in parallel; the selection is independent
// of arrival order so repeated builds pick the identical split.
func (b *builder) chooseSplit(items []buildItem, bounds types.AABB, depth int) (int, float32, bool) {
	side := bounds.Size()

	totalWeight := 0
	for _, it := range items {
		totalWeight += it.weight
	}
	parentScore := float32(totalWeight) * bounds.HalfArea()

	pending := 0
	for axis := 0; axis < 3; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		// Split steps become more granular the deeper we go.
		splitStep := side[axis] / (1024.0 / float32(depth+1))
		if splitStep < minSplitStep {
			continue
		}

		for point := bounds.Min[axis]; point < bounds.Max[axis]; point += splitStep {
			candidate := splitCandidate{axis: axis, point: point}
			pending++
			go candidate.scoreSplit(items, b.scoreChan)
		}
	}

	var best splitCandidate
	haveBest := false
	for ; pending > 0; pending-- {
		c := <-b.scoreChan
		if c.score >= parentScore {
			continue
		}
		if !haveBest || c.score < best.score ||
			(c.score == best.score && (c.axis < best.axis || (c.axis == best.axis && c.point < best.point))) {
			best = c
			haveBest = true
		}
	}

	if !haveBest {
		return 0, 0, false
	}
	return best.axis, best.point, true
}

// Calculate the score for splitting the items with this candidate and
// report the result to the supplied channel.
func (c splitCandidate) scoreSplit(items []buildItem, resChan chan<- splitCandidate) {
	leftBox := types.NewAABB()
	rightBox := types.NewAABB()
	leftWeight := 0
	rightWeight := 0

	for _, it := range items {
		if it.center[c.axis] < c.point {
			c.leftCount++
			leftWeight += it.weight
			leftBox.ExtendBox(it.bounds)
		} else {
			c.rightCount++
			rightWeight += it.weight
			rightBox.ExtendBox(it.bounds)
		}
	}

	if c.leftCount == 0 || c.rightCount == 0 {
		c.score = math.MaxFloat32
		resChan <- c
		return
	}

	c.score = float32(leftWeight)*leftBox.HalfArea() + float32(rightWeight)*rightBox.HalfArea()
	resChan <- c
}

// Split the items at the median of the longest axis. Stable with respect
// to the incoming order, so the result is deterministic.
func medianSplit(items []buildItem, bounds types.AABB) ([]buildItem, []buildItem) {
	side := bounds.Size()
	axis := 0
	if side[1] > side[axis] {
		axis = 1
	}
	if side[2] > side[axis] {
		axis = 2
	}

	sorted := make([]buildItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].center[axis] < sorted[j].center[axis]
	})

	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}
