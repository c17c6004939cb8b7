package types

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEps float32 = 1e-7

func TestRayTriangle(t *testing.T) {
	p0 := Vec3{-1, -1, 0}
	p1 := Vec3{1, -1, 0}
	p2 := Vec3{0, 1, 0}

	// Straight hit through the centroid.
	ray := Ray{Origin: Vec3{0, 0, -2}, Dir: Vec3{0, 0, 1}}
	d, ok := RayTriangle(ray, p0, p1, p2, testEps, MaxDistance)
	require.True(t, ok)
	assert.InDelta(t, 2, d, 1e-6)

	// Two-sided: hitting the back face works as well.
	ray = Ray{Origin: Vec3{0, 0, 2}, Dir: Vec3{0, 0, -1}}
	_, ok = RayTriangle(ray, p0, p1, p2, testEps, MaxDistance)
	assert.True(t, ok)

	// Miss outside the triangle.
	ray = Ray{Origin: Vec3{2, 2, -2}, Dir: Vec3{0, 0, 1}}
	_, ok = RayTriangle(ray, p0, p1, p2, testEps, MaxDistance)
	assert.False(t, ok)

	// Parallel to the triangle plane.
	ray = Ray{Origin: Vec3{0, 0, -2}, Dir: Vec3{1, 0, 0}}
	_, ok = RayTriangle(ray, p0, p1, p2, testEps, MaxDistance)
	assert.False(t, ok)

	// Triangle behind the ray origin.
	ray = Ray{Origin: Vec3{0, 0, 2}, Dir: Vec3{0, 0, 1}}
	_, ok = RayTriangle(ray, p0, p1, p2, testEps, MaxDistance)
	assert.False(t, ok)

	// Hit beyond the distance limit.
	ray = Ray{Origin: Vec3{0, 0, -2}, Dir: Vec3{0, 0, 1}}
	_, ok = RayTriangle(ray, p0, p1, p2, testEps, 1.5)
	assert.False(t, ok)
}

func TestRayAABBBasic(t *testing.T) {
	box := AABB{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}

	ray := Ray{Origin: Vec3{0, 0, -3}, Dir: Vec3{0, 0, 1}}
	d, ok := RayAABB(ray, box, MaxDistance)
	require.True(t, ok)
	assert.InDelta(t, 2, d, 1e-6)

	// Origin inside the box enters at distance zero.
	ray = Ray{Origin: Vec3{0, 0, 0}, Dir: Vec3{0, 0, 1}}
	d, ok = RayAABB(ray, box, MaxDistance)
	require.True(t, ok)
	assert.Equal(t, float32(0), d)

	// Box behind the ray.
	ray = Ray{Origin: Vec3{0, 0, 3}, Dir: Vec3{0, 0, 1}}
	_, ok = RayAABB(ray, box, MaxDistance)
	assert.False(t, ok)

	// Parallel to a slab, outside it.
	ray = Ray{Origin: Vec3{0, 2, -3}, Dir: Vec3{0, 0, 1}}
	_, ok = RayAABB(ray, box, MaxDistance)
	assert.False(t, ok)

	// Entry beyond the distance limit.
	ray = Ray{Origin: Vec3{0, 0, -3}, Dir: Vec3{0, 0, 1}}
	_, ok = RayAABB(ray, box, 1)
	assert.False(t, ok)
}

// rayAABBViaTriangles tessellates the box into 12 triangles and intersects
// them directly. Serves as a reference for the slab test.
func rayAABBViaTriangles(ray Ray, box AABB) (float32, bool) {
	if box.ContainsPoint(ray.Origin) {
		return 0, true
	}

	best := MaxDistance
	hit := false

	corner := func(mask int) Vec3 {
		var p Vec3
		for axis := 0; axis < 3; axis++ {
			if mask&(1<<axis) != 0 {
				p[axis] = box.Max[axis]
			} else {
				p[axis] = box.Min[axis]
			}
		}
		return p
	}

	quads := [6][4]int{
		{0, 2, 6, 4}, {1, 3, 7, 5}, // x faces
		{0, 1, 5, 4}, {2, 3, 7, 6}, // y faces
		{0, 1, 3, 2}, {4, 5, 7, 6}, // z faces
	}
	for _, q := range quads {
		p0, p1, p2, p3 := corner(q[0]), corner(q[1]), corner(q[2]), corner(q[3])
		if d, ok := RayTriangle(ray, p0, p1, p2, 0, best); ok {
			best = d
			hit = true
		}
		if d, ok := RayTriangle(ray, p0, p2, p3, 0, best); ok {
			best = d
			hit = true
		}
	}

	return best, hit
}

func TestRayAABBAgainstTessellation(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	randVec := func(scale float32) Vec3 {
		return Vec3{
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
		}
	}

	hits := 0
	disagreements := 0
	for i := 0; i < 500; i++ {
		box := NewAABB()
		box.ExtendPos(randVec(10))
		box.ExtendPos(randVec(10))

		for j := 0; j < 10; j++ {
			ray := RayFromPoints(randVec(20), randVec(20))

			d1, ok1 := RayAABB(ray, box, MaxDistance)
			d2, ok2 := rayAABBViaTriangles(ray, box)

			if ok1 != ok2 {
				// Grazing rays along box edges may differ between the two
				// formulations in float32.
				disagreements++
				continue
			}
			if ok1 {
				assert.InDelta(t, d2, d1, 1e-2)
				hits++
			}
		}
	}

	assert.LessOrEqual(t, disagreements, 5)
	// The sampling ranges overlap, so a fair share of rays must hit.
	assert.Greater(t, hits, 100)
}
