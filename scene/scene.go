package scene

import (
	"errors"
	"fmt"

	"github.com/sraesch/raycasting-occlusion/types"
)

// ErrDataIntegrity marks scenes that reference out-of-range mesh or vertex
// indices. Such scenes are rejected at load time; no query ever runs on them.
var ErrDataIntegrity = errors.New("scene: data integrity error")

// Triangle references three vertices of its mesh.
type Triangle [3]uint32

// Mesh is a tessellated surface: vertex positions plus triangles indexing
// into them. Meshes are immutable once loaded and may be shared by any
// number of objects.
type Mesh struct {
	Vertices  []types.Vec3
	Triangles []Triangle
}

// Bounds computes the bounding volume of the mesh in local coordinates.
func (m *Mesh) Bounds() types.AABB {
	box := types.NewAABB()
	for _, v := range m.Vertices {
		box.ExtendPos(v)
	}
	return box
}

// Object instantiates a mesh in the scene. The object id is the position in
// the scene's object array; ids are never reused or reordered.
type Object struct {
	MeshIndex uint32
	Transform types.Mat3x4
}

// Scene is the pair of mesh and object arrays. It is read-only for the
// lifetime of an occlusion query.
type Scene struct {
	Meshes  []Mesh
	Objects []Object
}

// Validate checks that every object references an existing mesh and that
// every triangle references existing vertices. Any violation is fatal.
func (s *Scene) Validate() error {
	for mi := range s.Meshes {
		mesh := &s.Meshes[mi]
		numVertices := uint32(len(mesh.Vertices))
		for ti, tri := range mesh.Triangles {
			if tri[0] >= numVertices || tri[1] >= numVertices || tri[2] >= numVertices {
				return fmt.Errorf("%w: mesh %d triangle %d references vertex out of range [0, %d)",
					ErrDataIntegrity, mi, ti, numVertices)
			}
		}
	}

	numMeshes := uint32(len(s.Meshes))
	for oi, obj := range s.Objects {
		if obj.MeshIndex >= numMeshes {
			return fmt.Errorf("%w: object %d references mesh %d out of range [0, %d)",
				ErrDataIntegrity, oi, obj.MeshIndex, numMeshes)
		}
	}

	return nil
}

// NumTriangles returns the total triangle count over all objects. Shared
// meshes are counted once per referencing object.
func (s *Scene) NumTriangles() int {
	total := 0
	for _, obj := range s.Objects {
		total += len(s.Meshes[obj.MeshIndex].Triangles)
	}
	return total
}

// ObjectTriangleCount returns the triangle count of a single object.
func (s *Scene) ObjectTriangleCount(id uint32) int {
	return len(s.Meshes[s.Objects[id].MeshIndex].Triangles)
}

// ObjectBounds computes the world-space bounding volume of an object by
// transforming the corners of its mesh bounds. The result is conservative.
func (s *Scene) ObjectBounds(id uint32) types.AABB {
	obj := &s.Objects[id]
	local := s.Meshes[obj.MeshIndex].Bounds()

	box := types.NewAABB()
	if local.IsEmpty() {
		return box
	}
	for i := 0; i < 8; i++ {
		corner := types.Vec3{local.Min[0], local.Min[1], local.Min[2]}
		if i&1 != 0 {
			corner[0] = local.Max[0]
		}
		if i&2 != 0 {
			corner[1] = local.Max[1]
		}
		if i&4 != 0 {
			corner[2] = local.Max[2]
		}
		box.ExtendPos(obj.Transform.TransformPoint(corner))
	}
	return box
}
