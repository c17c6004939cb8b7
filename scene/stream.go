package scene

import "github.com/sraesch/raycasting-occlusion/types"

// WorldTriangle is one triangle in world space tagged with its owning
// object id.
type WorldTriangle struct {
	ObjectID   uint32
	P0, P1, P2 types.Vec3
}

// Bounds returns the bounding volume of the triangle.
func (t *WorldTriangle) Bounds() types.AABB {
	box := types.NewAABB()
	box.ExtendPos(t.P0)
	box.ExtendPos(t.P1)
	box.ExtendPos(t.P2)
	return box
}

// Center returns the centroid of the triangle.
func (t *WorldTriangle) Center() types.Vec3 {
	return t.P0.Add(t.P1).Add(t.P2).Mul(1.0 / 3.0)
}

// TriangleStream is a lazy, finite, restartable sequence of world-space
// triangles. Consumers never see the full transformed scene at once:
// implementations re-derive triangles on demand from the mesh-local data
// plus the per-object transform.
type TriangleStream interface {
	// Next returns the next triangle, or false when the stream is
	// exhausted.
	Next() (WorldTriangle, bool)

	// Reset rewinds the stream to its first triangle.
	Reset()
}

// SceneStream is the canonical TriangleStream over a scene. Triangles of
// one object are always yielded contiguously, in object id order.
// Degenerate triangles (non-finite coordinates or zero area) are skipped
// and counted.
type SceneStream struct {
	scene   *Scene
	objects []uint32

	objPos  int
	triPos  int
	skipped int
}

// Stream creates a stream over all objects of the scene.
func Stream(s *Scene) *SceneStream {
	ids := make([]uint32, len(s.Objects))
	for i := range ids {
		ids[i] = uint32(i)
	}
	return StreamObjects(s, ids)
}

// StreamObjects creates a stream restricted to the given object ids.
func StreamObjects(s *Scene, ids []uint32) *SceneStream {
	return &SceneStream{scene: s, objects: ids}
}

// Next returns the next non-degenerate world-space triangle.
func (st *SceneStream) Next() (WorldTriangle, bool) {
	for st.objPos < len(st.objects) {
		oid := st.objects[st.objPos]
		obj := &st.scene.Objects[oid]
		mesh := &st.scene.Meshes[obj.MeshIndex]

		for st.triPos < len(mesh.Triangles) {
			tri := mesh.Triangles[st.triPos]
			st.triPos++

			wt := WorldTriangle{
				ObjectID: oid,
				P0:       obj.Transform.TransformPoint(mesh.Vertices[tri[0]]),
				P1:       obj.Transform.TransformPoint(mesh.Vertices[tri[1]]),
				P2:       obj.Transform.TransformPoint(mesh.Vertices[tri[2]]),
			}
			if isDegenerate(&wt) {
				st.skipped++
				continue
			}
			return wt, true
		}

		st.objPos++
		st.triPos = 0
	}

	return WorldTriangle{}, false
}

// Reset rewinds the stream and clears the degenerate counter.
func (st *SceneStream) Reset() {
	st.objPos = 0
	st.triPos = 0
	st.skipped = 0
}

// Skipped returns the number of degenerate triangles dropped since the
// last Reset.
func (st *SceneStream) Skipped() int {
	return st.skipped
}

func isDegenerate(t *WorldTriangle) bool {
	if !t.P0.IsFinite() || !t.P1.IsFinite() || !t.P2.IsFinite() {
		return true
	}

	// Zero-area triangles contribute nothing to any estimate.
	n := t.P1.Sub(t.P0).Cross(t.P2.Sub(t.P0))
	return n.Len() == 0
}
