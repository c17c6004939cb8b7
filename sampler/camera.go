// Package sampler turns a camera description into the deterministic,
// finite sequence of ray samples that the estimators consume.
package sampler

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/sraesch/raycasting-occlusion/types"
)

// ErrSamplingConfig marks camera or resolution parameters that cannot
// yield a well-defined sample sequence.
var ErrSamplingConfig = errors.New("sampler: invalid sampling configuration")

// The camera type describes the viewpoint an occlusion estimate is taken
// from.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Clip plane distances.
	Near float32
	Far  float32
}

// NewCamera returns a camera at the origin looking down the negative z
// axis with the given field of view.
func NewCamera(fov float32) Camera {
	return Camera{
		Position: types.XYZ(0, 0, 0),
		LookAt:   types.XYZ(0, 0, -1),
		Up:       types.XYZ(0, 1, 0),
		FOV:      fov,
		Near:     0.1,
		Far:      1000,
	}
}

// Validate checks the camera parameters. Estimation never starts on a
// camera that fails validation.
func (c Camera) Validate() error {
	if !c.Position.IsFinite() || !c.LookAt.IsFinite() || !c.Up.IsFinite() {
		return fmt.Errorf("%w: camera contains non-finite coordinates", ErrSamplingConfig)
	}
	if math32.IsNaN(c.FOV) || c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("%w: field of view %f is outside (0, 180)", ErrSamplingConfig, c.FOV)
	}
	if math32.IsNaN(c.Near) || math32.IsNaN(c.Far) || c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("%w: clip range [%f, %f] is invalid", ErrSamplingConfig, c.Near, c.Far)
	}

	dir := c.LookAt.Sub(c.Position)
	if dir.Len() == 0 {
		return fmt.Errorf("%w: camera position and look-at target coincide", ErrSamplingConfig)
	}
	if dir.Cross(c.Up).Len() == 0 {
		return fmt.Errorf("%w: up vector is parallel to the view direction", ErrSamplingConfig)
	}

	return nil
}

// View binds a validated camera to a pixel grid. It owns the combined
// view-projection matrix and its inverse, which map between world space
// and the grid.
type View struct {
	Width  int
	Height int

	camera      Camera
	viewProj    types.Mat4
	invViewProj types.Mat4
}

// NewView creates the view for the camera and resolution.
func NewView(camera Camera, width, height int) (*View, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resolution %dx%d is invalid", ErrSamplingConfig, width, height)
	}
	if err := camera.Validate(); err != nil {
		return nil, err
	}

	proj := types.Perspective4(camera.FOV, float32(width)/float32(height), camera.Near, camera.Far)
	view := types.LookAtV(camera.Position, camera.LookAt, camera.Up)
	viewProj := proj.Mul4(view)

	return &View{
		Width:       width,
		Height:      height,
		camera:      camera,
		viewProj:    viewProj,
		invViewProj: viewProj.Inv(),
	}, nil
}

// Camera returns the camera the view was built from.
func (v *View) Camera() Camera {
	return v.camera
}

// ViewProj returns the combined view-projection matrix.
func (v *View) ViewProj() types.Mat4 {
	return v.viewProj
}

// Ray returns the world-space ray through the given pixel coordinates
// (fractional, in units of pixels) together with the distance to the far
// plane along it. Rays are generated by unprojecting the far-plane point
// of the pixel through the inverse view-projection matrix, so a ray capped
// at the returned distance covers exactly the depth range a projected
// triangle can occupy.
func (v *View) Ray(px, py float32) (types.Ray, float32) {
	ndcX := 2*px/float32(v.Width) - 1
	ndcY := 1 - 2*py/float32(v.Height)

	p := v.invViewProj.Mul4x1(types.XYZW(ndcX, ndcY, 1, 1))
	farPoint := p.Mul(1.0 / p[3]).Vec3()

	dir := farPoint.Sub(v.camera.Position)
	dist := dir.Len()

	return types.Ray{Origin: v.camera.Position, Dir: dir.Mul(1.0 / dist)}, dist
}
