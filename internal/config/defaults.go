package config

// Builtin defaults shared by config loading and the `list` command.
const (
	DefaultConfigFile = "labrunner.yaml"
	DefaultLineLength = 120
	DefaultDistDir    = "dist"
	DefaultRunsDir    = "runs"
)

// DefaultIgnoreCodes returns the lint codes excluded by default. E203 and W503
// conflict with the formatter's slice and line-break styles.
func DefaultIgnoreCodes() []string {
	return []string{"E203", "W503"}
}

// DefaultCleanPaths returns the artifact paths removed by the builtin clean target.
func DefaultCleanPaths() []string {
	return []string{
		"{dist_dir}",
		"build",
		"*.egg-info",
		".pytest_cache",
		".ruff_cache",
		".coverage",
		"coverage.xml",
	}
}

// DefaultTargets returns the builtin recipe. Step strings carry placeholders
// ({line_length}, {ignore_codes}, {dist_dir}, {project}) interpolated at run
// time, so the formatting and checking targets cannot drift apart.
func DefaultTargets() []TargetConfig {
	return []TargetConfig{
		{
			Name:        "build",
			Description: "Build source and wheel distributions",
			Steps:       []string{"python -m build --outdir {dist_dir}"},
		},
		{
			Name:        "upload",
			Description: "Upload distributions to the package index",
			Needs:       []string{"build"},
			Steps:       []string{"twine upload {dist_dir}/*"},
		},
		{
			Name:        "upload-test",
			Description: "Upload distributions to the test package index",
			Needs:       []string{"build"},
			Steps:       []string{"twine upload --repository testpypi {dist_dir}/*"},
		},
		{
			Name:        "clean",
			Description: "Remove build artifacts",
			// No steps: clean is executed natively against project.clean_paths.
		},
		{
			Name:        "format",
			Description: "Reformat sources in place",
			Steps: []string{
				"isort --line-length {line_length} .",
				"black --line-length {line_length} .",
			},
		},
		{
			Name:        "check-codestyle",
			Description: "Verify formatting and lint rules without modifying files",
			Steps: []string{
				"black --check --line-length {line_length} .",
				"isort --check-only --line-length {line_length} .",
				"flake8 --max-line-length {line_length} --extend-ignore {ignore_codes} .",
			},
		},
		{
			Name:        "test",
			Description: "Run the test suite",
			Steps:       []string{"python -m pytest"},
		},
		{
			Name:        "test-cov",
			Description: "Run the test suite with coverage reporting",
			Steps:       []string{"python -m pytest --cov={project} --cov-report=term-missing --cov-report=xml"},
		},
	}
}

// applyDefaults fills omitted fields section by section.
func applyDefaults(cfg *Config) {
	applyProjectDefaults(&cfg.Project)
	applyCodestyleDefaults(&cfg.Codestyle)
	applyDocsDefaults(&cfg.Docs)
	applyDaemonDefaults(&cfg.Daemon)

	for i := range cfg.Sweeps {
		applySweepDefaults(&cfg.Sweeps[i])
	}
}

func applyProjectDefaults(p *ProjectConfig) {
	if p.DistDir == "" {
		p.DistDir = DefaultDistDir
	}
	if p.RunsDir == "" {
		p.RunsDir = DefaultRunsDir
	}
	if len(p.CleanPaths) == 0 {
		p.CleanPaths = DefaultCleanPaths()
	}
}

func applyCodestyleDefaults(c *CodestyleConfig) {
	if c.LineLength == 0 {
		c.LineLength = DefaultLineLength
	}
	if c.IgnoreCodes == nil {
		c.IgnoreCodes = DefaultIgnoreCodes()
	}
}

func applyDocsDefaults(d *DocsConfig) {
	if d.Config == "" {
		d.Config = "docs/site.yaml"
	}
	if d.Generator == "" {
		d.Generator = "mkdocs"
	}
	if d.SiteDir == "" {
		d.SiteDir = "site"
	}
	if d.Manifest == "" {
		d.Manifest = ".labrunner/docs-manifest.json"
	}
}

func applyDaemonDefaults(d *DaemonConfig) {
	if d.HTTPAddr == "" {
		d.HTTPAddr = ":8799"
	}
	if d.DataDir == "" {
		d.DataDir = ".labrunner"
	}
	if d.HistoryDB == "" {
		d.HistoryDB = d.DataDir + "/history.db"
	}
	if d.Workers <= 0 {
		d.Workers = 2
	}
	if d.QueueSize <= 0 {
		d.QueueSize = 32
	}
	if d.Watch.Debounce == "" {
		d.Watch.Debounce = "2s"
	}
	if d.Watch.Enabled && d.Watch.Target == "" {
		d.Watch.Target = "check-codestyle"
	}
	if d.NATS != nil {
		if d.NATS.Subject == "" {
			d.NATS.Subject = "labrunner.runs"
		}
		if d.NATS.Stream == "" {
			d.NATS.Stream = "LABRUNNER"
		}
	}
}

func applySweepDefaults(s *SweepConfig) {
	if s.Backend == "" {
		s.Backend = string(BackendProcesses)
	}
	if s.MaxParallel <= 0 {
		s.MaxParallel = 1
	}
	if s.SlotsPerDevice <= 0 {
		s.SlotsPerDevice = 1
	}
	if s.Slurm != nil && s.Slurm.Workdir == "" {
		s.Slurm.Workdir = "slurm"
	}
}
