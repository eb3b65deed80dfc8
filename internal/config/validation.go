package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

// newConfigurationValidator creates a comprehensive configuration validator.
func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateProject(); err != nil {
		return err
	}
	if err := cv.validateCodestyle(); err != nil {
		return err
	}
	if err := cv.validateTargets(); err != nil {
		return err
	}
	if err := cv.validateSweeps(); err != nil {
		return err
	}
	if err := cv.validateProfiles(); err != nil {
		return err
	}
	if err := cv.validateDaemon(); err != nil {
		return err
	}
	return nil
}

// validateProject validates project identity and directories.
func (cv *configurationValidator) validateProject() error {
	p := cv.config.Project
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("project name cannot be empty")
	}
	if strings.ContainsAny(p.Name, " \t") {
		return fmt.Errorf("project name %q must not contain whitespace", p.Name)
	}
	return nil
}

// validateCodestyle validates the shared style settings.
func (cv *configurationValidator) validateCodestyle() error {
	cs := cv.config.Codestyle
	if cs.LineLength <= 0 {
		return fmt.Errorf("codestyle line_length must be positive, got %d", cs.LineLength)
	}
	for _, code := range cs.IgnoreCodes {
		if strings.ContainsAny(code, ", \t") {
			return fmt.Errorf("codestyle ignore code %q must be a single code", code)
		}
	}
	return nil
}

// validateTargets validates user target overrides and additions.
func (cv *configurationValidator) validateTargets() error {
	names := make(map[string]bool)

	for _, target := range cv.config.Targets {
		if strings.TrimSpace(target.Name) == "" {
			return errors.New("target name cannot be empty")
		}
		if names[target.Name] {
			return fmt.Errorf("duplicate target name: %s", target.Name)
		}
		names[target.Name] = true

		for i, step := range target.Steps {
			if strings.TrimSpace(step) == "" {
				return fmt.Errorf("target %s step %d is empty", target.Name, i+1)
			}
		}
		for _, need := range target.Needs {
			if strings.TrimSpace(need) == "" {
				return fmt.Errorf("target %s has an empty dependency name", target.Name)
			}
			if need == target.Name {
				return fmt.Errorf("target %s depends on itself", target.Name)
			}
		}
	}
	return nil
}

// validateSweeps validates sweep declarations and their parameter grids.
func (cv *configurationValidator) validateSweeps() error {
	sweepNames := make(map[string]bool)

	for _, sweep := range cv.config.Sweeps {
		if strings.TrimSpace(sweep.Name) == "" {
			return errors.New("sweep name cannot be empty")
		}
		if sweepNames[sweep.Name] {
			return fmt.Errorf("duplicate sweep name: %s", sweep.Name)
		}
		sweepNames[sweep.Name] = true

		if len(sweep.Experiments) == 0 {
			return fmt.Errorf("sweep %s has no experiments", sweep.Name)
		}
		if sweep.Profile != "" {
			if _, ok := cv.config.Profiles[sweep.Profile]; !ok {
				return fmt.Errorf("sweep %s references unknown profile %q", sweep.Name, sweep.Profile)
			}
		}
		if sweep.Backend == string(BackendSlurm) && sweep.Slurm == nil {
			return fmt.Errorf("sweep %s uses the slurm backend but has no slurm section", sweep.Name)
		}

		expNames := make(map[string]bool)
		for _, exp := range sweep.Experiments {
			if strings.TrimSpace(exp.Name) == "" {
				return fmt.Errorf("sweep %s has an experiment without a name", sweep.Name)
			}
			if expNames[exp.Name] {
				return fmt.Errorf("sweep %s has duplicate experiment name: %s", sweep.Name, exp.Name)
			}
			expNames[exp.Name] = true

			if strings.TrimSpace(exp.Command) == "" {
				return fmt.Errorf("experiment %s in sweep %s has no command", exp.Name, sweep.Name)
			}

			paramKeys := make(map[string]bool)
			for _, param := range exp.Params {
				if strings.TrimSpace(param.Key) == "" {
					return fmt.Errorf("experiment %s in sweep %s has a parameter without a key", exp.Name, sweep.Name)
				}
				if paramKeys[param.Key] {
					return fmt.Errorf("experiment %s in sweep %s declares parameter %q twice", exp.Name, sweep.Name, param.Key)
				}
				paramKeys[param.Key] = true

				if len(param.Values) == 0 {
					return fmt.Errorf("parameter %s of experiment %s has no values", param.Key, exp.Name)
				}
			}
		}
	}
	return nil
}

// validateProfiles validates parameter profiles.
func (cv *configurationValidator) validateProfiles() error {
	for name, profile := range cv.config.Profiles {
		if strings.TrimSpace(name) == "" {
			return errors.New("profile name cannot be empty")
		}
		for key := range profile.Params {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("profile %s has a parameter without a key", name)
			}
		}
	}
	return nil
}

// validateDaemon validates daemon schedules and watch settings.
func (cv *configurationValidator) validateDaemon() error {
	d := cv.config.Daemon

	scheduleNames := make(map[string]bool)
	for _, schedule := range d.Schedules {
		if strings.TrimSpace(schedule.Name) == "" {
			return errors.New("schedule name cannot be empty")
		}
		if scheduleNames[schedule.Name] {
			return fmt.Errorf("duplicate schedule name: %s", schedule.Name)
		}
		scheduleNames[schedule.Name] = true

		hasEvery := schedule.Every != ""
		hasCron := schedule.Cron != ""
		if hasEvery == hasCron {
			return fmt.Errorf("schedule %s must set exactly one of every or cron", schedule.Name)
		}
		if hasEvery {
			dur, err := time.ParseDuration(schedule.Every)
			if err != nil {
				return fmt.Errorf("schedule %s has invalid every duration %q: %w", schedule.Name, schedule.Every, err)
			}
			if dur < time.Minute {
				return fmt.Errorf("schedule %s interval %s is below the 1m minimum", schedule.Name, schedule.Every)
			}
		}

		hasTarget := schedule.Target != ""
		hasSweep := schedule.Sweep != ""
		if hasTarget == hasSweep {
			return fmt.Errorf("schedule %s must set exactly one of target or sweep", schedule.Name)
		}
		if hasSweep && !cv.sweepExists(schedule.Sweep) {
			return fmt.Errorf("schedule %s references unknown sweep %q", schedule.Name, schedule.Sweep)
		}
	}

	if d.Watch.Enabled && len(d.Watch.Paths) == 0 {
		return errors.New("daemon watch is enabled but lists no paths")
	}

	if d.NATS != nil && strings.TrimSpace(d.NATS.URL) == "" {
		return errors.New("daemon nats section requires a url")
	}

	return nil
}

func (cv *configurationValidator) sweepExists(name string) bool {
	for _, sweep := range cv.config.Sweeps {
		if sweep.Name == name {
			return true
		}
	}
	return false
}
