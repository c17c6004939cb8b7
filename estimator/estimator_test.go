package estimator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sraesch/raycasting-occlusion/index"
	"github.com/sraesch/raycasting-occlusion/sampler"
	"github.com/sraesch/raycasting-occlusion/scene"
	"github.com/sraesch/raycasting-occlusion/types"
)

func quadMesh() scene.Mesh {
	return scene.Mesh{
		Vertices: []types.Vec3{
			types.XYZ(0, 0, 0),
			types.XYZ(1, 0, 0),
			types.XYZ(1, 1, 0),
			types.XYZ(0, 1, 0),
		},
		Triangles: []scene.Triangle{
			{0, 1, 2},
			{0, 2, 3},
		},
	}
}

// Two identical walls stacked along the view axis: the near wall appears
// larger under perspective and hides the far wall completely.
func twoWallScene() *scene.Scene {
	return &scene.Scene{
		Meshes: []scene.Mesh{quadMesh()},
		Objects: []scene.Object{
			{MeshIndex: 0, Transform: types.Translate3x4(types.XYZ(0, 0, 1))},
			{MeshIndex: 0, Transform: types.Ident3x4()},
		},
	}
}

func wallCamera() sampler.Camera {
	c := sampler.NewCamera(60)
	c.Position = types.XYZ(0.5, 0.5, 3)
	c.LookAt = types.XYZ(0.5, 0.5, 0)
	c.Far = 100
	return c
}

func wallSampler(t *testing.T, size int) *sampler.Sampler {
	t.Helper()
	view, err := sampler.NewView(wallCamera(), size, size)
	require.NoError(t, err)
	return sampler.New(view)
}

func buildIndex(t *testing.T, sc *scene.Scene) *index.Index {
	t.Helper()
	ix, err := index.Build(sc, index.DefaultBuildOptions())
	require.NoError(t, err)
	return ix
}

func requireWallRanking(t *testing.T, ranking Ranking) {
	t.Helper()

	require.Len(t, ranking, 2)
	require.Equal(t, uint32(1), ranking[0].ObjectID)
	require.Equal(t, float32(1), ranking[0].Occlusion)
	require.Equal(t, uint32(0), ranking[1].ObjectID)
	require.Equal(t, float32(0), ranking[1].Occlusion)
}

func TestRaycasterTwoWalls(t *testing.T) {
	sc := twoWallScene()
	smp := wallSampler(t, 64)

	rc := NewRaycaster(buildIndex(t, sc), 4)
	frame := NewFrame(64, 64, true)

	res, err := rc.Estimate(smp, frame)
	require.NoError(t, err)
	require.Greater(t, res.Stats.NumTriangles, 0)

	// Only the near wall is ever the nearest hit.
	for _, id := range frame.IDs {
		require.Contains(t, []uint32{0, NoObject}, id)
	}

	// Both walls are inside the frustum, so both have a footprint.
	require.Greater(t, res.Footprints[0], 0)
	require.Greater(t, res.Footprints[1], 0)

	requireWallRanking(t, Aggregate(frame, res.Footprints, 2))
}

func TestRasterizerTwoWalls(t *testing.T) {
	sc := twoWallScene()
	smp := wallSampler(t, 64)

	rast := NewRasterizer[uint32](sc, 4)
	frame := NewFrame(64, 64, true)

	res, err := rast.Estimate(smp, frame)
	require.NoError(t, err)
	require.Equal(t, 4, res.Stats.NumTriangles)

	for _, id := range frame.IDs {
		require.Contains(t, []uint32{0, NoObject}, id)
	}
	require.Greater(t, res.Footprints[0], 0)
	require.Greater(t, res.Footprints[1], 0)

	requireWallRanking(t, Aggregate(frame, res.Footprints, 2))
}

func TestOutsideFrustumScoresZero(t *testing.T) {
	sc := twoWallScene()
	sc.Objects = append(sc.Objects, scene.Object{
		MeshIndex: 0,
		Transform: types.Translate3x4(types.XYZ(100, 0, 0)),
	})
	smp := wallSampler(t, 32)

	rc := NewRaycaster(buildIndex(t, sc), 2)
	frame := NewFrame(32, 32, false)

	res, err := rc.Estimate(smp, frame)
	require.NoError(t, err)
	require.Zero(t, res.Footprints[2])

	// The unseen object still appears in the ranking, scored fully
	// visible and ordered after the equally scored lower id.
	ranking := Aggregate(frame, res.Footprints, 3)
	require.Len(t, ranking, 3)
	require.Equal(t, RankingEntry{ObjectID: 1, Occlusion: 1}, ranking[0])
	require.Equal(t, RankingEntry{ObjectID: 0, Occlusion: 0}, ranking[1])
	require.Equal(t, RankingEntry{ObjectID: 2, Occlusion: 0}, ranking[2])
}

func TestFrameSizeMismatch(t *testing.T) {
	sc := twoWallScene()
	smp := wallSampler(t, 32)

	_, err := NewRaycaster(buildIndex(t, sc), 1).Estimate(smp, NewFrame(16, 32, false))
	require.Error(t, err)

	_, err = NewRasterizer[uint32](sc, 1).Estimate(smp, NewFrame(32, 16, false))
	require.Error(t, err)
}

// A scatter of quads at varying depths seen from above.
func scatterScene() *scene.Scene {
	sc := &scene.Scene{Meshes: []scene.Mesh{quadMesh()}}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			sc.Objects = append(sc.Objects, scene.Object{
				MeshIndex: 0,
				Transform: types.Translate3x4(types.XYZ(float32(x)*1.2, float32(y)*1.2, float32((x*3+y)%5))),
			})
		}
	}
	return sc
}

func scatterSampler(t *testing.T, size int) *sampler.Sampler {
	t.Helper()
	c := sampler.NewCamera(50)
	c.Position = types.XYZ(3.5, 3.5, 25)
	c.LookAt = types.XYZ(3.5, 3.5, 0)
	c.Far = 100

	view, err := sampler.NewView(c, size, size)
	require.NoError(t, err)
	return sampler.New(view)
}

func TestMethodsAgree(t *testing.T) {
	sc := scatterScene()
	smp := scatterSampler(t, 128)

	rayFrame := NewFrame(128, 128, false)
	rcRes, err := NewRaycaster(buildIndex(t, sc), 4).Estimate(smp, rayFrame)
	require.NoError(t, err)

	rastFrame := NewFrame(128, 128, false)
	rastRes, err := NewRasterizer[uint32](sc, 4).Estimate(smp, rastFrame)
	require.NoError(t, err)

	agreement, _, _ := CompareIDBuffers(rayFrame, rastFrame)
	require.GreaterOrEqual(t, agreement, 0.99)

	// Footprints differ only at silhouette pixels.
	for id := range rcRes.Footprints {
		require.InDelta(t, float64(rcRes.Footprints[id]), float64(rastRes.Footprints[id]),
			0.05*float64(rcRes.Footprints[id])+16, "object %d", id)
	}
}

func TestEstimateDeterministic(t *testing.T) {
	sc := scatterScene()
	smp := scatterSampler(t, 64)
	ix := buildIndex(t, sc)

	run := func(workers int) (*Frame, Result) {
		frame := NewFrame(64, 64, true)
		res, err := NewRaycaster(ix, workers).Estimate(smp, frame)
		require.NoError(t, err)
		return frame, res
	}

	frameA, resA := run(1)
	frameB, resB := run(7)

	require.Equal(t, frameA, frameB)
	require.Equal(t, resA.Footprints, resB.Footprints)
	require.Equal(t, resA.Stats, resB.Stats)
}

func TestCompareIDBuffers(t *testing.T) {
	a := NewFrame(4, 4, false)
	b := NewFrame(4, 4, false)

	agreement, x, y := CompareIDBuffers(a, b)
	require.Equal(t, 1.0, agreement)
	require.Equal(t, -1, x)
	require.Equal(t, -1, y)

	b.IDs[6] = 3
	agreement, x, y = CompareIDBuffers(a, b)
	require.InDelta(t, 15.0/16.0, agreement, 1e-9)
	require.Equal(t, 2, x)
	require.Equal(t, 1, y)

	agreement, _, _ = CompareIDBuffers(a, NewFrame(2, 2, false))
	require.Zero(t, agreement)
}
