package recipe

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// Invocation is one fully expanded tool command ready for execution.
type Invocation struct {
	Argv []string
	Dir  string
	Env  map[string]string
}

// ExpandTarget turns a target's step strings into invocations. Each step is
// interpolated against vars, tokenized with shell quoting rules, and glob
// tokens are expanded against the target directory. Glob tokens without
// matches pass through verbatim so the tool reports them itself.
func ExpandTarget(t *Target, vars map[string]string) ([]Invocation, error) {
	invocations := make([]Invocation, 0, len(t.Steps))

	for i, step := range t.Steps {
		interpolated := config.Interpolate(step, vars)

		argv, err := shlex.Split(interpolated)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryRecipe, errors.SeverityFatal, "cannot tokenize step").
				WithContext("target", t.Name).
				WithContext("step", i+1)
		}
		if len(argv) == 0 {
			return nil, errors.New(errors.CategoryRecipe, errors.SeverityFatal, "step expands to an empty command").
				WithContext("target", t.Name).
				WithContext("step", i+1)
		}

		argv = expandGlobs(argv, t.Dir)

		invocations = append(invocations, Invocation{
			Argv: argv,
			Dir:  t.Dir,
			Env:  t.Env,
		})
	}

	return invocations, nil
}

// expandGlobs replaces glob tokens with their sorted matches. The first token
// is always the tool name and is never expanded.
func expandGlobs(argv []string, dir string) []string {
	out := make([]string, 0, len(argv))
	out = append(out, argv[0])

	for _, token := range argv[1:] {
		if !strings.ContainsAny(token, "*?[") {
			out = append(out, token)
			continue
		}

		pattern := token
		if dir != "" {
			pattern = filepath.Join(dir, token)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			out = append(out, token)
			continue
		}

		sort.Strings(matches)
		for _, match := range matches {
			if dir != "" {
				if rel, relErr := filepath.Rel(dir, match); relErr == nil {
					match = rel
				}
			}
			out = append(out, match)
		}
	}

	return out
}
