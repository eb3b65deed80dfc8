package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Project   ProjectConfig            `yaml:"project"`
	Codestyle CodestyleConfig          `yaml:"codestyle"`
	Targets   []TargetConfig           `yaml:"targets,omitempty"`
	Sweeps    []SweepConfig            `yaml:"sweeps,omitempty"`
	Profiles  map[string]ProfileConfig `yaml:"profiles,omitempty"`
	Docs      DocsConfig               `yaml:"docs"`
	Logging   LoggingConfig            `yaml:"logging"`
	Daemon    DaemonConfig             `yaml:"daemon"`
}

// ProjectConfig identifies the project and its well-known directories.
type ProjectConfig struct {
	Name       string   `yaml:"name"`
	DistDir    string   `yaml:"dist_dir,omitempty"`
	RunsDir    string   `yaml:"runs_dir,omitempty"`
	CleanPaths []string `yaml:"clean_paths,omitempty"` // Removed by the clean target, globs allowed
}

// CodestyleConfig carries the style knobs shared by the formatting and checking targets.
// Every target step sees the same values via the {line_length} and {ignore_codes} placeholders.
type CodestyleConfig struct {
	LineLength  int      `yaml:"line_length,omitempty"`
	IgnoreCodes []string `yaml:"ignore,omitempty"`
}

// TargetConfig declares one named recipe target. User targets with a builtin
// name replace the builtin definition wholesale.
type TargetConfig struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Steps       []string          `yaml:"steps,omitempty"`
	Needs       []string          `yaml:"needs,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Dir         string            `yaml:"dir,omitempty"`
}

// SweepConfig declares a named parameter sweep.
type SweepConfig struct {
	Name           string             `yaml:"name"`
	Backend        string             `yaml:"backend,omitempty"` // "processes" or "slurm"
	Experiments    []ExperimentConfig `yaml:"experiments"`
	MaxParallel    int                `yaml:"max_parallel,omitempty"`
	PauseBetween   string             `yaml:"pause_between,omitempty"` // duration, e.g. "10s"
	Devices        int                `yaml:"devices,omitempty"`
	SlotsPerDevice int                `yaml:"slots_per_device,omitempty"`
	Profile        string             `yaml:"profile,omitempty"`
	Slurm          *SlurmConfig       `yaml:"slurm,omitempty"`
}

// ExperimentConfig declares one experiment inside a sweep: a base command plus
// an ordered parameter grid expanded into the cartesian product of runs.
type ExperimentConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Params  []GridParamConfig `yaml:"params,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Shuffle bool              `yaml:"shuffle,omitempty"`
}

// GridParamConfig is one axis of a parameter grid. Declaration order is
// significant: earlier axes vary slower in the expansion.
type GridParamConfig struct {
	Key    string `yaml:"key"`
	Values []any  `yaml:"values"`
}

// ProfileConfig carries default parameters merged into runs that do not set them.
type ProfileConfig struct {
	Params map[string]any `yaml:"params,omitempty"`
}

// SlurmConfig carries sbatch script generation settings.
type SlurmConfig struct {
	Workdir    string `yaml:"workdir,omitempty"`
	Partition  string `yaml:"partition,omitempty"`
	GPUsPerJob int    `yaml:"gpus_per_job,omitempty"`
	CPUsPerGPU int    `yaml:"cpus_per_gpu,omitempty"`
	Template   string `yaml:"template,omitempty"` // Path to a custom sbatch template
}

// DocsConfig points at the docs-site configuration and the external generator.
type DocsConfig struct {
	Config    string `yaml:"config,omitempty"`    // Site configuration file
	Generator string `yaml:"generator,omitempty"` // External site generator binary
	SiteDir   string `yaml:"site_dir,omitempty"`  // Rendered output directory
	Manifest  string `yaml:"manifest,omitempty"`  // Fingerprint manifest for drift detection
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// DaemonConfig controls the long-running daemon mode.
type DaemonConfig struct {
	HTTPAddr  string           `yaml:"http_addr,omitempty"`
	DataDir   string           `yaml:"data_dir,omitempty"`
	HistoryDB string           `yaml:"history_db,omitempty"`
	Workers   int              `yaml:"workers,omitempty"`
	QueueSize int              `yaml:"queue_size,omitempty"`
	Schedules []ScheduleConfig `yaml:"schedules,omitempty"`
	Watch     WatchConfig      `yaml:"watch,omitempty"`
	NATS      *NATSConfig      `yaml:"nats,omitempty"`
}

// ScheduleConfig declares a recurring job. Exactly one of Every or Cron must be
// set, and exactly one of Target or Sweep.
type ScheduleConfig struct {
	Name   string `yaml:"name"`
	Every  string `yaml:"every,omitempty"` // duration, e.g. "30m"
	Cron   string `yaml:"cron,omitempty"`  // crontab expression
	Target string `yaml:"target,omitempty"`
	Sweep  string `yaml:"sweep,omitempty"`
}

// WatchConfig enables filesystem watching that triggers a target on change.
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled,omitempty"`
	Paths    []string `yaml:"paths,omitempty"`
	Target   string   `yaml:"target,omitempty"`
	Debounce string   `yaml:"debounce,omitempty"` // duration, coalesces bursts of events
}

// NATSConfig enables publishing run lifecycle events to JetStream.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

// Prepare loads, normalizes, and validates a configuration file in one pass.
// Normalization warnings are returned so callers can surface them.
func Prepare(configPath string) (*Config, []string, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	res, err := NormalizeConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, res.Warnings, err
	}

	return cfg, res.Warnings, nil
}

// loadEnvFile loads environment variables from the first .env file found.
// Existing environment variables are never overridden.
func loadEnvFile() error {
	envPaths := []string{".env", ".env.local"}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}
