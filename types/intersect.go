package types

import "math"

// RayTriangle computes the intersection between the ray and the triangle
// (p0, p1, p2) using the Moeller-Trumbore test. On a hit it returns the
// distance t along the ray, i.e. ray.Origin + t*ray.Dir is the intersection
// point, limited by maxT. The test is two-sided. Rays parallel to the
// triangle plane (determinant below eps) report a miss.
func RayTriangle(ray Ray, p0, p1, p2 Vec3, eps, maxT float32) (float32, bool) {
	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)

	pv := ray.Dir.Cross(e2)
	det := e1.Dot(pv)
	if det > -eps && det < eps {
		return 0, false
	}
	invDet := 1.0 / det

	tv := ray.Origin.Sub(p0)
	u := tv.Dot(pv) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	qv := tv.Cross(e1)
	v := ray.Dir.Dot(qv) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(qv) * invDet
	if t < eps || t > maxT {
		return 0, false
	}
	return t, true
}

// RayAABB computes the intersection between the ray and the bounding volume
// using the slab test. On a hit it returns the entry distance along the ray
// (0 if the origin lies inside the volume), limited by maxT.
func RayAABB(ray Ray, b AABB, maxT float32) (float32, bool) {
	tMin := float32(0)
	tMax := maxT

	for axis := 0; axis < 3; axis++ {
		if ray.Dir[axis] == 0 {
			// Parallel to the slab: a hit is only possible if the origin
			// lies between the two planes.
			if ray.Origin[axis] < b.Min[axis] || ray.Origin[axis] > b.Max[axis] {
				return 0, false
			}
			continue
		}

		inv := 1.0 / ray.Dir[axis]
		t0 := (b.Min[axis] - ray.Origin[axis]) * inv
		t1 := (b.Max[axis] - ray.Origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

// MaxDistance is the upper bound passed to intersection tests when no
// closer hit is known yet.
const MaxDistance float32 = math.MaxFloat32
