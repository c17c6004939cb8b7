package cmd

import (
	"github.com/urfave/cli"

	"github.com/sraesch/raycasting-occlusion/log"
)

var logger = log.New("occ")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
