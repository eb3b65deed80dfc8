// Package recipe resolves named build targets into ordered tool invocations.
// The builtin recipe covers the packaging and quality-gate workflow; user
// configuration may add targets or replace builtin ones by name.
package recipe

import (
	"git.home.luguber.info/inful/labrunner/internal/config"
)

// Target is one resolved recipe target.
type Target struct {
	Name        string
	Description string
	Steps       []string
	Needs       []string
	Env         map[string]string
	Dir         string
	Builtin     bool
}

// Recipe holds the merged builtin and user-defined targets.
type Recipe struct {
	targets map[string]*Target
	order   []string
}

// FromConfig merges the builtin targets with user targets. A user target with
// a builtin name replaces the builtin definition but keeps its position.
func FromConfig(cfg *config.Config) *Recipe {
	r := &Recipe{targets: make(map[string]*Target)}

	for _, tc := range config.DefaultTargets() {
		r.add(newTarget(tc, true))
	}
	for _, tc := range cfg.Targets {
		r.add(newTarget(tc, false))
	}

	return r
}

func newTarget(tc config.TargetConfig, builtin bool) *Target {
	return &Target{
		Name:        tc.Name,
		Description: tc.Description,
		Steps:       tc.Steps,
		Needs:       tc.Needs,
		Env:         tc.Env,
		Dir:         tc.Dir,
		Builtin:     builtin,
	}
}

func (r *Recipe) add(t *Target) {
	if _, exists := r.targets[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.targets[t.Name] = t
}

// Target looks up a target by name.
func (r *Recipe) Target(name string) (*Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Names returns target names in declaration order: builtins first, then user
// additions. Overridden builtins keep their builtin position.
func (r *Recipe) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// IsNativeClean reports whether a target is executed natively instead of
// through external tools. Only the builtin clean target (or an override that
// kept it step-free) qualifies.
func IsNativeClean(t *Target) bool {
	return t.Name == "clean" && len(t.Steps) == 0
}
