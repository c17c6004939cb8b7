package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/sraesch/raycasting-occlusion/estimator"
	"github.com/sraesch/raycasting-occlusion/index"
	"github.com/sraesch/raycasting-occlusion/sampler"
	sceneio "github.com/sraesch/raycasting-occlusion/scene/io"
	"github.com/sraesch/raycasting-occlusion/types"
)

// Rank estimates the occlusion of every object of a scene from a single
// viewpoint and prints the ranking, most occluded first.
func Rank(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one scene file")
	}

	sc, err := sceneio.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	camera := sampler.NewCamera(float32(ctx.Float64("fov")))
	if camera.Position, err = flagVec3(ctx, "eye"); err != nil {
		return err
	}
	if camera.LookAt, err = flagVec3(ctx, "look-at"); err != nil {
		return err
	}
	camera.Far = float32(ctx.Float64("far"))

	size := ctx.Int("size")
	view, err := sampler.NewView(camera, size, size)
	if err != nil {
		return err
	}

	ix, err := index.Build(sc, index.BuildOptions{BudgetBytes: ctx.Int64("budget")})
	if err != nil {
		return err
	}

	frame := estimator.NewFrame(size, size, false)
	res, err := estimator.NewRaycaster(ix, ctx.Int("threads")).Estimate(sampler.New(view), frame)
	if err != nil {
		return err
	}

	ranking := estimator.Aggregate(frame, res.Footprints, len(sc.Objects))
	if limit := ctx.Int("top"); limit > 0 && limit < len(ranking) {
		ranking = ranking[:limit]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Object", "Occlusion"})
	for _, entry := range ranking {
		table.Append([]string{
			fmt.Sprintf("%d", entry.ObjectID),
			fmt.Sprintf("%.4f", entry.Occlusion),
		})
	}
	table.Render()

	return nil
}

// flagVec3 parses a "x,y,z" flag value into a vector.
func flagVec3(ctx *cli.Context, name string) (types.Vec3, error) {
	parts := strings.Split(ctx.String(name), ",")
	if len(parts) != 3 {
		return types.Vec3{}, fmt.Errorf("flag %s: expected three comma-separated values; got %q", name, ctx.String(name))
	}

	var v types.Vec3
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("flag %s: %v", name, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}
