package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sraesch/raycasting-occlusion/types"
)

func quadMesh() Mesh {
	return Mesh{
		Vertices: []types.Vec3{
			{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
		},
		Triangles: []Triangle{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestValidate(t *testing.T) {
	sc := &Scene{
		Meshes: []Mesh{quadMesh()},
		Objects: []Object{
			{MeshIndex: 0, Transform: types.Ident3x4()},
			{MeshIndex: 0, Transform: types.Translate3x4(types.Vec3{0, 0, -5})},
		},
	}
	require.NoError(t, sc.Validate())

	bad := &Scene{
		Meshes:  []Mesh{quadMesh()},
		Objects: []Object{{MeshIndex: 3, Transform: types.Ident3x4()}},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)

	badTri := &Scene{
		Meshes: []Mesh{{
			Vertices:  []types.Vec3{{0, 0, 0}, {1, 0, 0}},
			Triangles: []Triangle{{0, 1, 7}},
		}},
	}
	err = badTri.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestNumTriangles(t *testing.T) {
	sc := &Scene{
		Meshes: []Mesh{quadMesh()},
		Objects: []Object{
			{MeshIndex: 0, Transform: types.Ident3x4()},
			{MeshIndex: 0, Transform: types.Ident3x4()},
		},
	}

	// Shared meshes count once per referencing object.
	assert.Equal(t, 4, sc.NumTriangles())
	assert.Equal(t, 2, sc.ObjectTriangleCount(0))
}

func TestObjectBounds(t *testing.T) {
	sc := &Scene{
		Meshes: []Mesh{quadMesh()},
		Objects: []Object{
			{MeshIndex: 0, Transform: types.Translate3x4(types.Vec3{10, 0, 0})},
		},
	}

	box := sc.ObjectBounds(0)
	assert.Equal(t, types.Vec3{9, -1, 0}, box.Min)
	assert.Equal(t, types.Vec3{11, 1, 0}, box.Max)
}
