package main

import (
	"github.com/alecthomas/kong"

	"bedrockmgr/internal/cli"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("bedrockmgr"),
		kong.Description("Manage a Minecraft Bedrock dedicated server: updates, backups, and supervision."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " (" + commit + ")"},
	)
	ctx.FatalIfErrorf(ctx.Run(&c.Globals))
}
