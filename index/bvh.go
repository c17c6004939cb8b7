// Package index builds and queries the spatial index of the occlusion
// engine: a bounding-volume hierarchy over the world-space triangles of a
// scene, with every leaf triangle tagged by its owning object.
package index

import (
	"errors"

	"github.com/sraesch/raycasting-occlusion/types"
)

// ErrResourceExhausted is returned when the index cannot be built within
// the configured memory budget. The builder never drops geometry to fit.
var ErrResourceExhausted = errors.New("index: memory budget exhausted")

// Tri is one world-space triangle stored in a leaf run.
type Tri struct {
	P0, P1, P2 types.Vec3
	ObjectID   uint32
}

// Node is one node of the flattened hierarchy. Interior nodes reference two
// children by index, leaves reference a contiguous run in the triangle
// array. The root is the first node.
type Node struct {
	Bounds types.AABB

	// Child node indices; -1 marks a leaf.
	Left, Right int32

	// Triangle run of a leaf.
	FirstTri int32
	NumTris  int32
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Left < 0
}

// Accounted per-element sizes for the memory budget.
const (
	nodeBytes     = 40
	triBytes      = 40
	objEntryBytes = 48
)

// Index is the queryable spatial index. It is immutable after construction
// and safe for unsynchronized concurrent reads.
type Index struct {
	Nodes []Node
	Tris  []Tri

	// Number of objects of the originating scene.
	NumObjects int

	// Budget the index was built under, for compatibility checking when
	// the index is reloaded. Zero means unbounded.
	BudgetBytes int64
}

// MemoryBytes returns the accounted size of the index.
func (ix *Index) MemoryBytes() int64 {
	return int64(len(ix.Nodes))*nodeBytes + int64(len(ix.Tris))*triBytes
}

// Bounds returns the world bounds of the indexed scene.
func (ix *Index) Bounds() types.AABB {
	if len(ix.Nodes) == 0 {
		return types.NewAABB()
	}
	return ix.Nodes[0].Bounds
}

// Hit is the result of a nearest-hit query.
type Hit struct {
	ObjectID uint32
	Distance float32
}

// Nearest finds the nearest triangle intersection along the ray within
// maxT. Children are visited nearer-first so that subtrees beyond the
// current best hit are pruned. Ties at identical distance resolve to the
// lower object id.
func (ix *Index) Nearest(ray types.Ray, eps, maxT float32) (Hit, bool) {
	hit, _, ok := ix.NearestTested(ray, eps, maxT)
	return hit, ok
}

// NearestTested is Nearest plus the number of triangle intersection tests
// the traversal could not avoid.
func (ix *Index) NearestTested(ray types.Ray, eps, maxT float32) (Hit, int, bool) {
	if len(ix.Nodes) == 0 {
		return Hit{}, 0, false
	}
	if _, ok := types.RayAABB(ray, ix.Nodes[0].Bounds, maxT); !ok {
		return Hit{}, 0, false
	}

	best := Hit{Distance: maxT}
	found := false
	tested := 0

	stack := make([]int32, 1, 64)
	stack[0] = 0

	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &ix.Nodes[ni]

		if node.IsLeaf() {
			for i := node.FirstTri; i < node.FirstTri+node.NumTris; i++ {
				tri := &ix.Tris[i]
				tested++
				d, ok := types.RayTriangle(ray, tri.P0, tri.P1, tri.P2, eps, best.Distance)
				if !ok {
					continue
				}
				if !found || d < best.Distance || (d == best.Distance && tri.ObjectID < best.ObjectID) {
					best = Hit{ObjectID: tri.ObjectID, Distance: d}
					found = true
				}
			}
			continue
		}

		dl, okl := types.RayAABB(ray, ix.Nodes[node.Left].Bounds, best.Distance)
		dr, okr := types.RayAABB(ray, ix.Nodes[node.Right].Bounds, best.Distance)

		// Push the farther child first so the nearer one is popped first.
		switch {
		case okl && okr:
			if dl <= dr {
				stack = append(stack, node.Right, node.Left)
			} else {
				stack = append(stack, node.Left, node.Right)
			}
		case okl:
			stack = append(stack, node.Left)
		case okr:
			stack = append(stack, node.Right)
		}
	}

	return best, tested, found
}

// Footprint appends to out the ids of all objects whose geometry the ray
// intersects anywhere within maxT, regardless of occlusion. marks must
// have NumObjects entries and be all false; it is used for deduplication
// and restored before returning, so one scratch slice can be reused across
// calls.
func (ix *Index) Footprint(ray types.Ray, eps, maxT float32, marks []bool, out []uint32) []uint32 {
	if len(ix.Nodes) == 0 {
		return out
	}

	start := len(out)
	stack := make([]int32, 1, 64)
	stack[0] = 0

	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &ix.Nodes[ni]

		if _, ok := types.RayAABB(ray, node.Bounds, maxT); !ok {
			continue
		}

		if node.IsLeaf() {
			for i := node.FirstTri; i < node.FirstTri+node.NumTris; i++ {
				tri := &ix.Tris[i]
				if marks[tri.ObjectID] {
					continue
				}
				if _, ok := types.RayTriangle(ray, tri.P0, tri.P1, tri.P2, eps, maxT); ok {
					marks[tri.ObjectID] = true
					out = append(out, tri.ObjectID)
				}
			}
			continue
		}

		stack = append(stack, node.Left, node.Right)
	}

	for _, id := range out[start:] {
		marks[id] = false
	}
	return out
}
