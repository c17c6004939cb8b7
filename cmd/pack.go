package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/sraesch/raycasting-occlusion/scene"
	sceneio "github.com/sraesch/raycasting-occlusion/scene/io"
	"github.com/sraesch/raycasting-occlusion/types"
)

// Pack generates a benchmark scene and serializes it to a scene container.
func Pack(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one output file")
	}

	grid := ctx.Int("grid")
	if grid <= 0 {
		return fmt.Errorf("flag grid: expected a positive grid size; got %d", grid)
	}
	levels := ctx.Int("depth-levels")
	if levels <= 0 {
		return fmt.Errorf("flag depth-levels: expected a positive level count; got %d", levels)
	}

	sc := gridScene(grid, float32(ctx.Float64("spacing")), levels)

	outFile := ctx.Args().First()
	if err := sceneio.WriteScene(outFile, sc); err != nil {
		return err
	}

	logger.Noticef("packed %s: %d objects, %d triangles",
		outFile, len(sc.Objects), sc.NumTriangles())
	return nil
}

// gridScene builds a grid x grid field of unit cubes sharing one mesh,
// staggered over the given number of depth levels so nearer rows of cubes
// partially occlude the farther ones.
func gridScene(grid int, spacing float32, levels int) *scene.Scene {
	cube := scene.Mesh{
		Vertices: []types.Vec3{
			types.XYZ(0, 0, 0), types.XYZ(1, 0, 0),
			types.XYZ(1, 1, 0), types.XYZ(0, 1, 0),
			types.XYZ(0, 0, 1), types.XYZ(1, 0, 1),
			types.XYZ(1, 1, 1), types.XYZ(0, 1, 1),
		},
		Triangles: []scene.Triangle{
			{0, 2, 1}, {0, 3, 2}, // back
			{4, 5, 6}, {4, 6, 7}, // front
			{0, 1, 5}, {0, 5, 4}, // bottom
			{3, 6, 2}, {3, 7, 6}, // top
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	}

	sc := &scene.Scene{
		Meshes:  []scene.Mesh{cube},
		Objects: make([]scene.Object, 0, grid*grid),
	}
	for x := 0; x < grid; x++ {
		for y := 0; y < grid; y++ {
			depth := float32((x*3+y)%levels) * spacing
			sc.Objects = append(sc.Objects, scene.Object{
				MeshIndex: 0,
				Transform: types.Translate3x4(types.XYZ(
					float32(x)*spacing,
					float32(y)*spacing,
					-depth,
				)),
			})
		}
	}
	return sc
}
