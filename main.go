package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/sraesch/raycasting-occlusion/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "occ"
	app.Usage = "estimate object occlusion in large 3d scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "pack",
			Usage: "generate a benchmark scene container",
			Description: `
Generate a grid of staggered cubes and serialize it to a scene container,
ready for the index, test, rank and info commands.`,
			ArgsUsage: "out.occ",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "grid",
					Value: 16,
					Usage: "cubes per grid axis",
				},
				cli.Float64Flag{
					Name:  "spacing",
					Value: 1.5,
					Usage: "distance between neighboring cubes",
				},
				cli.IntFlag{
					Name:  "depth-levels",
					Value: 5,
					Usage: "number of distinct cube depths",
				},
			},
			Action: cmd.Pack,
		},
		{
			Name:  "index",
			Usage: "build the spatial index for scene files",
			Description: `
Build the bounding-volume hierarchy for one or more scene files and persist
each index next to its scene, so repeated estimation runs skip construction.`,
			ArgsUsage: "scene1.occ scene2.occ ...",
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:  "budget",
					Usage: "memory budget for the index in bytes, 0 for unbounded",
				},
				cli.IntFlag{
					Name:  "leaf-size",
					Usage: "triangle count at which index leaves stop splitting",
				},
			},
			Action: cmd.BuildIndex,
		},
		{
			Name:  "test",
			Usage: "run a configured occlusion test",
			Description: `
Run the occlusion test described by a YAML configuration: every configured
estimation strategy over every view of every input scene, with optional
frame dumps and cross-validation between the strategies.`,
			ArgsUsage: "config.yaml",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "occ-results",
					Usage: "output directory for frame dumps",
				},
			},
			Action: cmd.RunTest,
		},
		{
			Name:      "rank",
			Usage:     "rank the objects of a scene by occlusion from a viewpoint",
			ArgsUsage: "scene.occ",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "eye",
					Value: "0,0,0",
					Usage: "camera position as \"x,y,z\"",
				},
				cli.StringFlag{
					Name:  "look-at",
					Value: "0,0,-1",
					Usage: "camera target as \"x,y,z\"",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 60,
					Usage: "vertical field of view in degrees",
				},
				cli.Float64Flag{
					Name:  "far",
					Value: 1000,
					Usage: "far clip distance",
				},
				cli.IntFlag{
					Name:  "size",
					Value: 256,
					Usage: "sample grid width and height",
				},
				cli.IntFlag{
					Name:  "threads",
					Usage: "worker goroutines, 0 for one per cpu",
				},
				cli.Int64Flag{
					Name:  "budget",
					Usage: "memory budget for the index in bytes, 0 for unbounded",
				},
				cli.IntFlag{
					Name:  "top",
					Usage: "print only the most occluded objects, 0 for all",
				},
			},
			Action: cmd.Rank,
		},
		{
			Name:      "info",
			Usage:     "print summary statistics of scene files",
			ArgsUsage: "scene1.occ scene2.occ ...",
			Action:    cmd.Info,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
