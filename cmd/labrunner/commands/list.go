package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/recipe"
	"git.home.luguber.info/inful/labrunner/internal/sweep"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
}

type targetListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Needs       []string `json:"needs,omitempty"`
	Builtin     bool     `json:"builtin"`
}

type sweepListing struct {
	Name        string `json:"name"`
	Backend     string `json:"backend"`
	Experiments int    `json:"experiments"`
	Runs        int    `json:"runs"`
}

type listing struct {
	Targets []targetListing `json:"targets"`
	Sweeps  []sweepListing  `json:"sweeps"`
}

func (l *ListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	out, err := buildListing(cfg)
	if err != nil {
		return err
	}

	if l.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printListing(os.Stdout, out)
	return nil
}

func buildListing(cfg *config.Config) (*listing, error) {
	rec := recipe.FromConfig(cfg)

	out := &listing{}
	for _, name := range rec.Names() {
		target, _ := rec.Target(name)
		out.Targets = append(out.Targets, targetListing{
			Name:        target.Name,
			Description: target.Description,
			Needs:       target.Needs,
			Builtin:     target.Builtin,
		})
	}

	for _, sc := range cfg.Sweeps {
		s, err := sweep.FromConfig(cfg, sc.Name)
		if err != nil {
			return nil, err
		}
		runs := 0
		for _, exp := range s.Experiments {
			runs += exp.Grid.Size()
		}
		out.Sweeps = append(out.Sweeps, sweepListing{
			Name:        s.Name,
			Backend:     string(s.Backend),
			Experiments: len(s.Experiments),
			Runs:        runs,
		})
	}

	return out, nil
}

func printListing(w io.Writer, out *listing) {
	fmt.Fprintln(w, "Targets:")
	for _, target := range out.Targets {
		marker := " "
		if !target.Builtin {
			marker = "*"
		}
		line := fmt.Sprintf("  %s %-18s %s", marker, target.Name, target.Description)
		if len(target.Needs) > 0 {
			line += fmt.Sprintf(" (needs %s)", strings.Join(target.Needs, ", "))
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	if len(out.Sweeps) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSweeps:")
	for _, s := range out.Sweeps {
		fmt.Fprintf(w, "    %-18s %s, %d experiments, %d runs\n",
			s.Name, s.Backend, s.Experiments, s.Runs)
	}
}
