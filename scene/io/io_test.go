package io

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sraesch/raycasting-occlusion/scene"
	"github.com/sraesch/raycasting-occlusion/types"
)

func testScene() *scene.Scene {
	return &scene.Scene{
		Meshes: []scene.Mesh{{
			Vertices: []types.Vec3{
				{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
			},
			Triangles: []scene.Triangle{{0, 1, 2}, {0, 2, 3}},
		}},
		Objects: []scene.Object{
			{MeshIndex: 0, Transform: types.Ident3x4()},
			{MeshIndex: 0, Transform: types.Translate3x4(types.Vec3{0, 0, -3})},
		},
	}
}

func TestSceneRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.occ")

	src := testScene()
	require.NoError(t, WriteScene(path, src))

	dst, err := ReadScene(path)
	require.NoError(t, err)

	assert.Equal(t, src.Meshes, dst.Meshes)
	assert.Equal(t, src.Objects, dst.Objects)
}

func TestUnsupportedExtension(t *testing.T) {
	_, err := ReadScene("scene.glb")
	assert.Error(t, err)

	err = WriteScene("scene.glb", testScene())
	assert.Error(t, err)
}

func TestReadRejectsInvalidScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.occ")

	bad := testScene()
	bad.Objects[0].MeshIndex = 42
	require.NoError(t, WriteScene(path, bad))

	_, err := ReadScene(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, scene.ErrDataIntegrity)
}
