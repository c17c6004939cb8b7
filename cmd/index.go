package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/sraesch/raycasting-occlusion/index"
	sceneio "github.com/sraesch/raycasting-occlusion/scene/io"
)

// BuildIndex builds the spatial index for the given scene files and
// persists each one next to its scene.
func BuildIndex(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return fmt.Errorf("no scene files given")
	}

	opts := index.DefaultBuildOptions()
	opts.BudgetBytes = ctx.Int64("budget")
	if leafSize := ctx.Int("leaf-size"); leafSize > 0 {
		opts.MaxLeafSize = leafSize
	}

	for i := 0; i < ctx.NArg(); i++ {
		sceneFile := ctx.Args().Get(i)

		sc, err := sceneio.ReadScene(sceneFile)
		if err != nil {
			return err
		}

		ix, err := index.Build(sc, opts)
		if err != nil {
			return err
		}

		indexFile := strings.TrimSuffix(sceneFile, ".occ") + ".idx"
		if err = index.WriteIndex(ix, indexFile); err != nil {
			return err
		}

		logger.Noticef("indexed %s: %d nodes, %d triangles, %d bytes",
			sceneFile, len(ix.Nodes), len(ix.Tris), ix.MemoryBytes())
	}

	return nil
}
