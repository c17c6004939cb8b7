package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sraesch/raycasting-occlusion/types"
)

func TestStreamYieldsWorldSpaceTriangles(t *testing.T) {
	sc := &Scene{
		Meshes: []Mesh{quadMesh()},
		Objects: []Object{
			{MeshIndex: 0, Transform: types.Ident3x4()},
			{MeshIndex: 0, Transform: types.Translate3x4(types.Vec3{0, 0, -5})},
		},
	}

	st := Stream(sc)

	var tris []WorldTriangle
	for {
		wt, ok := st.Next()
		if !ok {
			break
		}
		tris = append(tris, wt)
	}

	require.Len(t, tris, 4)
	assert.Equal(t, uint32(0), tris[0].ObjectID)
	assert.Equal(t, uint32(0), tris[1].ObjectID)
	assert.Equal(t, uint32(1), tris[2].ObjectID)
	assert.Equal(t, uint32(1), tris[3].ObjectID)

	// Second object carries the translation.
	assert.Equal(t, types.Vec3{-1, -1, -5}, tris[2].P0)

	// Restartable: a reset stream yields the identical sequence.
	st.Reset()
	wt, ok := st.Next()
	require.True(t, ok)
	assert.Equal(t, tris[0], wt)
}

func TestStreamObjectsSubset(t *testing.T) {
	sc := &Scene{
		Meshes: []Mesh{quadMesh()},
		Objects: []Object{
			{MeshIndex: 0, Transform: types.Ident3x4()},
			{MeshIndex: 0, Transform: types.Translate3x4(types.Vec3{3, 0, 0})},
			{MeshIndex: 0, Transform: types.Translate3x4(types.Vec3{6, 0, 0})},
		},
	}

	st := StreamObjects(sc, []uint32{2})
	count := 0
	for {
		wt, ok := st.Next()
		if !ok {
			break
		}
		assert.Equal(t, uint32(2), wt.ObjectID)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestStreamSkipsDegenerateTriangles(t *testing.T) {
	nan := float32(math.NaN())
	sc := &Scene{
		Meshes: []Mesh{{
			Vertices: []types.Vec3{
				{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
				{2, 2, 2}, // duplicated by the zero-area triangle below
				{nan, 0, 0},
			},
			Triangles: []Triangle{
				{0, 1, 2}, // fine
				{3, 3, 3}, // zero area
				{0, 1, 4}, // NaN coordinate
			},
		}},
		Objects: []Object{{MeshIndex: 0, Transform: types.Ident3x4()}},
	}

	st := Stream(sc)
	count := 0
	for {
		_, ok := st.Next()
		if !ok {
			break
		}
		count++
	}

	assert.Equal(t, 1, count)
	assert.Equal(t, 2, st.Skipped())
}
