package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/sraesch/raycasting-occlusion/config"
	"github.com/sraesch/raycasting-occlusion/executor"
	"github.com/sraesch/raycasting-occlusion/stats"
)

// RunTest executes a configured occlusion test and prints the per-view
// results and the timing tree.
func RunTest(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one configuration file")
	}

	cfg, err := config.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	root := stats.NewRoot()
	results, err := executor.New(cfg, ctx.String("out"), root).Run()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Scene", "View", "Method", "Triangles", "Agreement", "Most occluded"})
	for _, res := range results {
		top := ""
		if len(res.Ranking) > 0 {
			top = fmt.Sprintf("%d (%.2f)", res.Ranking[0].ObjectID, res.Ranking[0].Occlusion)
		}
		table.Append([]string{
			res.SceneFile,
			fmt.Sprintf("%d", res.ViewIndex),
			res.Method,
			fmt.Sprintf("%d", res.Stats.NumTriangles),
			fmt.Sprintf("%.2f%%", res.Agreement*100),
			top,
		})
	}
	table.Render()

	fmt.Printf("\ntimings: %s", root.String())
	return nil
}
