package runner

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/sweep"
	"git.home.luguber.info/inful/labrunner/internal/workspace"
)

//go:embed sbatch.sh.tmpl
var sbatchTemplate string

// SubmitScriptName is the generated script that sbatches every run.
const SubmitScriptName = "submit_all.sh"

func init() {
	mustRegister(&SlurmBackend{})
}

// SlurmBackend generates one sbatch script per run plus a submit-all script.
// It never talks to the cluster itself; submission happens through the
// generated scripts.
type SlurmBackend struct{}

// Name implements Backend.
func (b *SlurmBackend) Name() string { return string(config.BackendSlurm) }

// scriptData is the template context for one batch script.
type scriptData struct {
	Name       string
	Partition  string
	GPUs       int
	CPUsPerGPU int
	Device     int
	Dir        string
	LogPath    string
	Env        map[string]string
	Command    string
}

// Execute renders the scripts. With PrintOnly they go to opts.Stdout instead
// of disk.
func (b *SlurmBackend) Execute(ctx context.Context, s *sweep.Sweep, runs []*sweep.Run, opts Options) (*Report, error) {
	start := time.Now()

	slurmCfg := s.Slurm
	if slurmCfg == nil {
		slurmCfg = &config.SlurmConfig{}
	}
	workdir := slurmCfg.Workdir
	if workdir == "" {
		workdir = "slurm"
	}

	tmpl, err := b.loadTemplate(slurmCfg)
	if err != nil {
		return nil, err
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if !opts.PrintOnly {
		if err := os.MkdirAll(workdir, 0o750); err != nil {
			return nil, errors.WorkspaceError("create slurm workdir", err).
				WithContext("path", workdir)
		}
	}

	report := &Report{Sweep: s.Name}
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, errors.CategorySweep, errors.SeverityWarning, "script generation canceled")
		}

		rendered, err := b.renderScript(tmpl, s, run, slurmCfg)
		if err != nil {
			return report, err
		}

		scriptPath := filepath.Join(workdir, run.Name+".sbatch")
		if opts.PrintOnly {
			fmt.Fprintf(stdout, "# ---- %s ----\n%s\n", scriptPath, rendered)
			continue
		}
		if err := os.WriteFile(scriptPath, []byte(rendered), 0o640); err != nil {
			return report, errors.WorkspaceError("write batch script", err).
				WithContext("path", scriptPath)
		}
		report.Scripts = append(report.Scripts, scriptPath)
	}

	submitPath := filepath.Join(workdir, SubmitScriptName)
	submit := b.submitScript(runs, workdir)
	if opts.PrintOnly {
		fmt.Fprintf(stdout, "# ---- %s ----\n%s\n", submitPath, submit)
	} else {
		if err := os.WriteFile(submitPath, []byte(submit), 0o750); err != nil {
			return report, errors.WorkspaceError("write submit script", err).
				WithContext("path", submitPath)
		}
		report.Scripts = append(report.Scripts, submitPath)
		slog.Info("Generated batch scripts",
			logfields.Sweep(s.Name),
			slog.Int("scripts", len(report.Scripts)),
			logfields.Path(workdir))
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (b *SlurmBackend) loadTemplate(cfg *config.SlurmConfig) (*template.Template, error) {
	text := sbatchTemplate
	if cfg.Template != "" {
		data, err := os.ReadFile(cfg.Template)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategorySweep, errors.SeverityFatal, "cannot read sbatch template").
				WithContext("path", cfg.Template)
		}
		text = string(data)
	}

	tmpl, err := template.New("sbatch").Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategorySweep, errors.SeverityFatal, "cannot parse sbatch template").
			WithContext("path", cfg.Template)
	}
	return tmpl, nil
}

func (b *SlurmBackend) renderScript(tmpl *template.Template, s *sweep.Sweep, run *sweep.Run, cfg *config.SlurmConfig) (string, error) {
	data := scriptData{
		Name:       run.Name,
		Partition:  cfg.Partition,
		GPUs:       cfg.GPUsPerJob,
		CPUsPerGPU: cfg.CPUsPerGPU,
		Device:     run.Device,
		Dir:        run.Dir,
		LogPath:    filepath.Join(run.Dir, workspace.RunLogName),
		Env:        run.Env,
		Command:    shellJoin(run.Argv),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, errors.CategorySweep, errors.SeverityFatal, "cannot render batch script").
			WithContext("run", run.Name)
	}
	return buf.String(), nil
}

func (b *SlurmBackend) submitScript(runs []*sweep.Run, workdir string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	sb.WriteString("# Submit every batch script of this sweep.\n")
	sb.WriteString("set -e\n\n")
	for _, run := range runs {
		fmt.Fprintf(&sb, "sbatch %s\n", filepath.Join(workdir, run.Name+".sbatch"))
	}
	return sb.String()
}

// shellJoin renders argv as a single shell command, quoting tokens that need
// it.
func shellJoin(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		parts[i] = shellQuote(arg)
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$&|;<>()*?[]{}~#`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
