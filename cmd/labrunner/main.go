package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/labrunner/cmd/labrunner/commands"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("labrunner"),
		kong.Description("Recipe, sweep, and docs runner for lab projects."),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("labrunner %s (commit %s, built %s)",
				version.Version, version.GitCommit, version.BuildTime),
		},
	)

	if err := ctx.Run(&commands.Global{}); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
