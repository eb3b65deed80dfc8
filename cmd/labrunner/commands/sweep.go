package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/runner"
	"git.home.luguber.info/inful/labrunner/internal/sweep"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
	"git.home.luguber.info/inful/labrunner/internal/workspace"
)

// SweepCmd implements the 'sweep' command.
type SweepCmd struct {
	Name         string        `arg:"" help:"Sweep name from the configuration"`
	Backend      string        `help:"Override the configured backend (processes or slurm)"`
	MaxParallel  int           `name:"max-parallel" help:"Override the maximum concurrent runs"`
	PauseBetween time.Duration `name:"pause-between" help:"Override the pause between run starts"`
	Suffix       string        `help:"Append a suffix to every run name (repeat separation)"`
	PrintOnly    bool          `name:"print-only" help:"Slurm: print batch scripts instead of writing them"`
	DryRun       bool          `name:"dry-run" help:"List the expanded runs without executing"`
}

func (sc *SweepCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	s, err := sweep.FromConfig(cfg, sc.Name)
	if err != nil {
		return err
	}

	// CLI overrides are strict: an unknown backend fails at registry lookup
	// instead of silently falling back.
	if sc.Backend != "" {
		s.Backend = config.SweepBackend(sc.Backend)
	}
	if sc.MaxParallel > 0 {
		s.MaxParallel = sc.MaxParallel
	}
	if sc.PauseBetween > 0 {
		s.PauseBetween = sc.PauseBetween
	}
	if sc.Suffix != "" {
		s.Suffix = sc.Suffix
	}

	runs, err := s.Describe()
	if err != nil {
		return err
	}

	if sc.DryRun {
		printRuns(os.Stdout, runs)
		return nil
	}

	backend, err := runner.Get(string(s.Backend))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := runner.Options{
		Exec:      toolexec.NewExecutor(),
		Workspace: workspace.ForConfig(cfg),
		Stdout:    os.Stdout,
		PrintOnly: sc.PrintOnly,
	}
	if store, emitter := openHistory(cfg); store != nil {
		defer store.Close()
		opts.Emitter = emitter
	}

	report, err := backend.Execute(ctx, s, runs, opts)
	if err != nil {
		return err
	}

	completed, failed, canceled := report.Counts()
	fmt.Printf("sweep %s: %d completed, %d failed, %d canceled (%s)\n",
		s.Name, completed, failed, canceled, report.Duration.Round(time.Millisecond))
	for _, script := range report.Scripts {
		fmt.Println("wrote", script)
	}

	return report.Err()
}

// printRuns lists the expanded runs of a dry-run invocation.
func printRuns(w io.Writer, runs []*sweep.Run) {
	fmt.Fprintf(w, "%d runs:\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(w, "  %-32s %s\n", run.Name, strings.Join(run.Argv, " "))
	}
}
