package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sraesch/raycasting-occlusion/types"
)

func validCamera() Camera {
	c := NewCamera(60)
	c.Position = types.XYZ(0, 0, 10)
	c.LookAt = types.XYZ(0, 0, 0)
	c.Far = 100
	return c
}

func TestCameraValidate(t *testing.T) {
	require.NoError(t, validCamera().Validate())

	specs := map[string]func(c *Camera){
		"zero fov":        func(c *Camera) { c.FOV = 0 },
		"negative fov":    func(c *Camera) { c.FOV = -30 },
		"fov at 180":      func(c *Camera) { c.FOV = 180 },
		"nan fov":         func(c *Camera) { c.FOV = nan() },
		"zero near":       func(c *Camera) { c.Near = 0 },
		"far before near": func(c *Camera) { c.Far = c.Near / 2 },
		"position is target": func(c *Camera) {
			c.LookAt = c.Position
		},
		"up parallel to view": func(c *Camera) {
			c.Up = c.LookAt.Sub(c.Position)
		},
		"non-finite position": func(c *Camera) {
			c.Position = types.XYZ(nan(), 0, 0)
		},
	}

	for name, breakIt := range specs {
		t.Run(name, func(t *testing.T) {
			c := validCamera()
			breakIt(&c)
			require.ErrorIs(t, c.Validate(), ErrSamplingConfig)
		})
	}
}

func nan() float32 {
	zero := float32(0)
	return zero / zero
}

func TestNewViewRejectsBadResolution(t *testing.T) {
	_, err := NewView(validCamera(), 0, 128)
	require.ErrorIs(t, err, ErrSamplingConfig)

	_, err = NewView(validCamera(), 128, -1)
	require.ErrorIs(t, err, ErrSamplingConfig)
}

func TestCenterRay(t *testing.T) {
	// Odd resolution so a pixel center lands exactly on the view axis.
	view, err := NewView(validCamera(), 101, 101)
	require.NoError(t, err)

	ray, maxT := view.Ray(50.5, 50.5)
	require.InDelta(t, 0, ray.Dir[0], 1e-5)
	require.InDelta(t, 0, ray.Dir[1], 1e-5)
	require.InDelta(t, -1, ray.Dir[2], 1e-5)
	require.Equal(t, types.XYZ(0, 0, 10), ray.Origin)

	// The cap is the far plane distance along the axis.
	require.InDelta(t, 100, maxT, 1e-2)
}

func TestRayOrientation(t *testing.T) {
	view, err := NewView(validCamera(), 64, 64)
	require.NoError(t, err)

	smp := New(view)

	// Row 0 is the top of the image, so its rays point upward.
	top := smp.At(0)
	require.Equal(t, 0, top.X)
	require.Equal(t, 0, top.Y)
	require.Greater(t, top.Ray.Dir[1], float32(0))
	require.Less(t, top.Ray.Dir[0], float32(0))

	bottom := smp.At(smp.Len() - 1)
	require.Equal(t, 63, bottom.X)
	require.Equal(t, 63, bottom.Y)
	require.Less(t, bottom.Ray.Dir[1], float32(0))
	require.Greater(t, bottom.Ray.Dir[0], float32(0))

	// Off-axis rays reach the far plane later than the center ray.
	_, center := view.Ray(32, 32)
	require.Greater(t, top.MaxT, center)
}

func TestSamplerEnumeration(t *testing.T) {
	view, err := NewView(validCamera(), 16, 8)
	require.NoError(t, err)

	smp := New(view)
	require.Equal(t, 128, smp.Len())

	count := 0
	for {
		s, ok := smp.Next()
		if !ok {
			break
		}
		require.Equal(t, count%16, s.X)
		require.Equal(t, count/16, s.Y)
		require.Equal(t, smp.At(count), s)
		require.Equal(t, float32(1), s.Weight)
		count++
	}
	require.Equal(t, 128, count)

	// Reset replays the identical sequence.
	smp.Reset()
	first, ok := smp.Next()
	require.True(t, ok)
	require.Equal(t, smp.At(0), first)
}

func TestJitterDeterminism(t *testing.T) {
	view, err := NewView(validCamera(), 32, 32)
	require.NoError(t, err)

	a := NewJittered(view, 42)
	b := NewJittered(view, 42)
	for i := 0; i < a.Len(); i++ {
		require.Equal(t, a.At(i), b.At(i), "sample %d", i)
	}

	seed, jittered := a.Seed()
	require.True(t, jittered)
	require.Equal(t, uint64(42), seed)

	// A different seed perturbs the rays, but never the pixel layout.
	c := NewJittered(view, 43)
	differs := false
	for i := 0; i < a.Len(); i++ {
		sa, sc := a.At(i), c.At(i)
		require.Equal(t, sa.X, sc.X)
		require.Equal(t, sa.Y, sc.Y)
		if sa.Ray.Dir != sc.Ray.Dir {
			differs = true
		}
	}
	require.True(t, differs)
}
