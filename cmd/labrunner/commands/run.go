package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/recipe"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
	"git.home.luguber.info/inful/labrunner/internal/vcs"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	DryRun    bool     `name:"dry-run" help:"Print resolved commands without executing them"`
	KeepGoing bool     `short:"k" name:"keep-going" help:"Continue with later targets after a failure"`
	Targets   []string `arg:"" name:"target" help:"Targets to run"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	rec := recipe.FromConfig(cfg)
	plan, err := rec.Plan(r.Targets...)
	if err != nil {
		return err
	}

	vars := cfg.Placeholders(vcs.VersionOrFallback("."))

	if r.DryRun {
		return printPlan(os.Stdout, cfg, plan, vars)
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := recipe.NewEngine(toolexec.NewExecutor())
	if !r.KeepGoing {
		return engine.RunPlan(ctx, cfg, plan, vars)
	}

	// Keep-going: every target gets its chance; the first failure decides
	// the exit code.
	var firstErr error
	for _, target := range plan.Targets {
		if err := engine.RunTarget(ctx, cfg, target, vars); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// printPlan shows what would run, in plan order, without executing anything.
func printPlan(w io.Writer, cfg *config.Config, plan *recipe.Plan, vars map[string]string) error {
	for _, target := range plan.Targets {
		fmt.Fprintf(w, "%s:\n", target.Name)

		if recipe.IsNativeClean(target) {
			for _, path := range cfg.Project.CleanPaths {
				fmt.Fprintf(w, "  rm -rf %s\n", config.Interpolate(path, vars))
			}
			continue
		}

		invocations, err := recipe.ExpandTarget(target, vars)
		if err != nil {
			return err
		}
		for _, inv := range invocations {
			fmt.Fprintf(w, "  %s\n", strings.Join(inv.Argv, " "))
		}
	}
	return nil
}
