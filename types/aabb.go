package types

import (
	"fmt"
	"math"
)

// AABB is an axis-aligned bounding volume.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB creates a new empty bounding volume.
func NewAABB() AABB {
	return AABB{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// IsEmpty returns true if the bounding volume contains no point.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// ExtendPos grows the bounding volume to contain the given position.
func (b *AABB) ExtendPos(p Vec3) {
	b.Min = MinVec3(b.Min, p)
	b.Max = MaxVec3(b.Max, p)
}

// ExtendBox grows the bounding volume to contain the given volume.
func (b *AABB) ExtendBox(rhs AABB) {
	b.Min = MinVec3(b.Min, rhs.Min)
	b.Max = MaxVec3(b.Max, rhs.Max)
}

// Center returns the center of the bounding volume.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the bounding volume along each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// HalfArea returns half the surface area of the box. Sufficient for
// comparing split candidates.
func (b AABB) HalfArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	s := b.Size()
	return s[0]*s[1] + s[1]*s[2] + s[0]*s[2]
}

// ContainsPoint reports whether the point lies inside the volume.
func (b AABB) ContainsPoint(p Vec3) bool {
	return b.Min[0] <= p[0] && p[0] <= b.Max[0] &&
		b.Min[1] <= p[1] && p[1] <= b.Max[1] &&
		b.Min[2] <= p[2] && p[2] <= b.Max[2]
}

// ContainsBox reports whether the given volume lies fully inside this one.
func (b AABB) ContainsBox(rhs AABB) bool {
	return b.Min[0] <= rhs.Min[0] && rhs.Max[0] <= b.Max[0] &&
		b.Min[1] <= rhs.Min[1] && rhs.Max[1] <= b.Max[1] &&
		b.Min[2] <= rhs.Min[2] && rhs.Max[2] <= b.Max[2]
}

func (b AABB) String() string {
	return fmt.Sprintf("(%g, %g, %g)-(%g, %g, %g)",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
