package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	sceneio "github.com/sraesch/raycasting-occlusion/scene/io"
	"github.com/sraesch/raycasting-occlusion/types"
)

// Info prints summary statistics of the given scene files.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return fmt.Errorf("no scene files given")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Scene", "Meshes", "Objects", "Triangles", "Bounds"})

	for i := 0; i < ctx.NArg(); i++ {
		sceneFile := ctx.Args().Get(i)

		sc, err := sceneio.ReadScene(sceneFile)
		if err != nil {
			return err
		}

		bounds := types.NewAABB()
		for id := 0; id < len(sc.Objects); id++ {
			bounds.ExtendBox(sc.ObjectBounds(uint32(id)))
		}

		table.Append([]string{
			sceneFile,
			fmt.Sprintf("%d", len(sc.Meshes)),
			fmt.Sprintf("%d", len(sc.Objects)),
			fmt.Sprintf("%d", sc.NumTriangles()),
			bounds.String(),
		})
	}

	table.Render()
	return nil
}
