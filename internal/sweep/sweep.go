package sweep

import (
	"math/rand"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/util/sets"
)

// Experiment is a base command plus the grid expanded around it.
type Experiment struct {
	Name    string
	Command string
	Grid    Grid
	Env     map[string]string
	Shuffle bool
}

// Sweep is a fully resolved run description.
type Sweep struct {
	Name           string
	Backend        config.SweepBackend
	Experiments    []Experiment
	MaxParallel    int
	PauseBetween   time.Duration
	Devices        int
	SlotsPerDevice int
	Slurm          *config.SlurmConfig

	// RunsDir is the root under which per-run working directories are created.
	RunsDir string
	// Suffix is appended to every run name, mainly to separate repeats.
	Suffix string
	// ShuffleSeed makes shuffled expansion reproducible. Zero means seed from
	// the clock.
	ShuffleSeed int64

	profile map[string]string
}

// Run is one concrete process of a sweep.
type Run struct {
	ID         string
	Name       string
	Experiment string
	Sweep      string
	Argv       []string
	Env        map[string]string
	Dir        string
	Params     []Param
	Device     int
}

// FromConfig resolves a named sweep from configuration, merging its profile.
func FromConfig(cfg *config.Config, name string) (*Sweep, error) {
	var sc *config.SweepConfig
	known := make([]string, 0, len(cfg.Sweeps))
	for i := range cfg.Sweeps {
		known = append(known, cfg.Sweeps[i].Name)
		if cfg.Sweeps[i].Name == name {
			sc = &cfg.Sweeps[i]
		}
	}
	if sc == nil {
		return nil, errors.SweepNotFound(name, known)
	}

	s := &Sweep{
		Name:           sc.Name,
		Backend:        config.SweepBackend(sc.Backend),
		MaxParallel:    sc.MaxParallel,
		Devices:        sc.Devices,
		SlotsPerDevice: sc.SlotsPerDevice,
		Slurm:          sc.Slurm,
		RunsDir:        cfg.Project.RunsDir,
	}

	if sc.PauseBetween != "" {
		pause, err := time.ParseDuration(sc.PauseBetween)
		if err != nil {
			return nil, errors.ValidationFailed("pause_between", err.Error()).
				WithContext("sweep", sc.Name)
		}
		s.PauseBetween = pause
	}

	if sc.Profile != "" {
		pc, ok := cfg.Profiles[sc.Profile]
		if !ok {
			knownProfiles := make([]string, 0, len(cfg.Profiles))
			for pname := range cfg.Profiles {
				knownProfiles = append(knownProfiles, pname)
			}
			sort.Strings(knownProfiles)
			return nil, errors.ValidationFailed("profile", "profile not defined").
				WithContext("sweep", sc.Name).
				WithContext("profile", sc.Profile).
				WithContext("known_profiles", knownProfiles)
		}
		s.profile = make(map[string]string, len(pc.Params))
		for key, value := range pc.Params {
			s.profile[key] = formatValue(value)
		}
	}

	for _, ec := range sc.Experiments {
		grid := make(Grid, 0, len(ec.Params))
		for _, axis := range ec.Params {
			values := make([]string, 0, len(axis.Values))
			for _, v := range axis.Values {
				values = append(values, formatValue(v))
			}
			grid = append(grid, Axis{Key: axis.Key, Values: values})
		}
		s.Experiments = append(s.Experiments, Experiment{
			Name:    ec.Name,
			Command: ec.Command,
			Grid:    grid,
			Env:     ec.Env,
			Shuffle: ec.Shuffle,
		})
	}

	return s, nil
}

// Describe expands every experiment into the flat run list. Order follows
// experiment declaration; within an experiment the grid expands first axis
// slowest, unless the experiment requests shuffling.
func (s *Sweep) Describe() ([]*Run, error) {
	var rng *rand.Rand
	seed := s.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var runs []*Run
	for _, exp := range s.Experiments {
		baseArgv, err := shlex.Split(exp.Command)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategorySweep, errors.SeverityFatal, "cannot tokenize experiment command").
				WithContext("sweep", s.Name).
				WithContext("experiment", exp.Name)
		}
		if len(baseArgv) == 0 {
			return nil, errors.New(errors.CategorySweep, errors.SeverityFatal, "experiment command is empty").
				WithContext("sweep", s.Name).
				WithContext("experiment", exp.Name)
		}

		combos := exp.Grid.Expand()
		if exp.Shuffle {
			if rng == nil {
				rng = rand.New(rand.NewSource(seed))
			}
			shuffleCombos(combos, rng)
		}

		// Profile defaults apply when the grid does not own the key. Sorted
		// for stable argv.
		var profileParams []Param
		if len(s.profile) > 0 {
			gridKeys := sets.New[string]()
			for _, axis := range exp.Grid {
				gridKeys.Add(axis.Key)
			}
			keys := make([]string, 0, len(s.profile))
			for key := range s.profile {
				if !gridKeys.Has(key) {
					keys = append(keys, key)
				}
			}
			sort.Strings(keys)
			for _, key := range keys {
				profileParams = append(profileParams, Param{Key: key, Value: s.profile[key]})
			}
		}

		for _, combo := range combos {
			name := exp.Name + comboSuffix(combo)
			if s.Suffix != "" {
				name += "_" + sanitizeToken(s.Suffix)
			}

			argv := make([]string, 0, len(baseArgv)+len(profileParams)+len(combo))
			argv = append(argv, baseArgv...)
			for _, p := range profileParams {
				argv = append(argv, "--"+p.Key+"="+p.Value)
			}
			for _, p := range combo {
				argv = append(argv, "--"+p.Key+"="+p.Value)
			}

			env := make(map[string]string, len(exp.Env))
			for key, value := range exp.Env {
				env[key] = value
			}

			runs = append(runs, &Run{
				ID:         uuid.NewString(),
				Name:       name,
				Experiment: exp.Name,
				Sweep:      s.Name,
				Argv:       argv,
				Env:        env,
				Dir:        filepath.Join(s.RunsDir, s.Name, name),
				Params:     combo,
				Device:     -1,
			})
		}
	}

	return runs, nil
}

// Parallelism returns the effective worker count for the processes backend.
func (s *Sweep) Parallelism() int {
	limit := s.MaxParallel
	if limit < 1 {
		limit = 1
	}
	if s.Devices > 0 {
		slotsPer := s.SlotsPerDevice
		if slotsPer < 1 {
			slotsPer = 1
		}
		if slots := s.Devices * slotsPer; slots < limit {
			limit = slots
		}
	}
	return limit
}

// DeviceForSlot maps a worker slot to its device index, or -1 when no devices
// are configured.
func (s *Sweep) DeviceForSlot(slot int) int {
	if s.Devices <= 0 {
		return -1
	}
	slotsPer := s.SlotsPerDevice
	if slotsPer < 1 {
		slotsPer = 1
	}
	return (slot / slotsPer) % s.Devices
}
