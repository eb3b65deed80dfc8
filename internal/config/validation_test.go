package config

import (
	"strings"
	"testing"
)

func validBase() *Config {
	cfg := &Config{}
	cfg.Project.Name = "demo"
	applyDefaults(cfg)
	return cfg
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	if err := ValidateConfig(validBase()); err != nil {
		t.Fatalf("ValidateConfig() error: %v", err)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "empty project name",
			mutate:  func(c *Config) { c.Project.Name = "" },
			wantSub: "project name",
		},
		{
			name:    "project name with spaces",
			mutate:  func(c *Config) { c.Project.Name = "my project" },
			wantSub: "whitespace",
		},
		{
			name:    "non-positive line length",
			mutate:  func(c *Config) { c.Codestyle.LineLength = 0 },
			wantSub: "line_length",
		},
		{
			name:    "comma in ignore code",
			mutate:  func(c *Config) { c.Codestyle.IgnoreCodes = []string{"E203,W503"} },
			wantSub: "single code",
		},
		{
			name: "duplicate target",
			mutate: func(c *Config) {
				c.Targets = []TargetConfig{
					{Name: "lint", Steps: []string{"flake8 ."}},
					{Name: "lint", Steps: []string{"flake8 ."}},
				}
			},
			wantSub: "duplicate target",
		},
		{
			name: "empty step",
			mutate: func(c *Config) {
				c.Targets = []TargetConfig{{Name: "lint", Steps: []string{"  "}}}
			},
			wantSub: "step 1 is empty",
		},
		{
			name: "self-dependent target",
			mutate: func(c *Config) {
				c.Targets = []TargetConfig{{Name: "lint", Steps: []string{"flake8 ."}, Needs: []string{"lint"}}}
			},
			wantSub: "depends on itself",
		},
		{
			name: "sweep without experiments",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{Name: "grid", Backend: "processes", MaxParallel: 1, SlotsPerDevice: 1}}
			},
			wantSub: "no experiments",
		},
		{
			name: "sweep with unknown profile",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{
					Name: "grid", Backend: "processes", MaxParallel: 1, SlotsPerDevice: 1, Profile: "missing",
					Experiments: []ExperimentConfig{{Name: "e", Command: "python -m train"}},
				}}
			},
			wantSub: "unknown profile",
		},
		{
			name: "slurm backend without slurm section",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{
					Name: "grid", Backend: "slurm", MaxParallel: 1, SlotsPerDevice: 1,
					Experiments: []ExperimentConfig{{Name: "e", Command: "python -m train"}},
				}}
			},
			wantSub: "no slurm section",
		},
		{
			name: "duplicate grid key",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{
					Name: "grid", Backend: "processes", MaxParallel: 1, SlotsPerDevice: 1,
					Experiments: []ExperimentConfig{{
						Name:    "e",
						Command: "python -m train",
						Params: []GridParamConfig{
							{Key: "seed", Values: []any{1, 2}},
							{Key: "seed", Values: []any{3}},
						},
					}},
				}}
			},
			wantSub: "twice",
		},
		{
			name: "grid key without values",
			mutate: func(c *Config) {
				c.Sweeps = []SweepConfig{{
					Name: "grid", Backend: "processes", MaxParallel: 1, SlotsPerDevice: 1,
					Experiments: []ExperimentConfig{{
						Name:    "e",
						Command: "python -m train",
						Params:  []GridParamConfig{{Key: "seed"}},
					}},
				}}
			},
			wantSub: "no values",
		},
		{
			name: "schedule with both every and cron",
			mutate: func(c *Config) {
				c.Daemon.Schedules = []ScheduleConfig{{Name: "s", Every: "10m", Cron: "* * * * *", Target: "test"}}
			},
			wantSub: "exactly one of every or cron",
		},
		{
			name: "schedule below minimum interval",
			mutate: func(c *Config) {
				c.Daemon.Schedules = []ScheduleConfig{{Name: "s", Every: "10s", Target: "test"}}
			},
			wantSub: "below the 1m minimum",
		},
		{
			name: "schedule with both target and sweep",
			mutate: func(c *Config) {
				c.Daemon.Schedules = []ScheduleConfig{{Name: "s", Every: "10m", Target: "test", Sweep: "grid"}}
			},
			wantSub: "exactly one of target or sweep",
		},
		{
			name: "schedule referencing unknown sweep",
			mutate: func(c *Config) {
				c.Daemon.Schedules = []ScheduleConfig{{Name: "s", Every: "10m", Sweep: "missing"}}
			},
			wantSub: "unknown sweep",
		},
		{
			name: "watch enabled without paths",
			mutate: func(c *Config) {
				c.Daemon.Watch.Enabled = true
				c.Daemon.Watch.Paths = nil
			},
			wantSub: "no paths",
		},
		{
			name: "nats without url",
			mutate: func(c *Config) {
				c.Daemon.NATS = &NATSConfig{}
			},
			wantSub: "requires a url",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validBase()
			test.mutate(cfg)

			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("ValidateConfig() should have failed")
			}
			if !strings.Contains(err.Error(), test.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), test.wantSub)
			}
		})
	}
}
