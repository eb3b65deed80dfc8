package recipe

import (
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/util/sets"
)

// Plan is an ordered list of targets with every dependency placed before its
// dependents. Each target appears at most once.
type Plan struct {
	Targets []*Target
}

// Plan resolves the requested target names into execution order. Dependencies
// run before dependents, duplicates collapse onto the first occurrence, and
// the order is deterministic for a given request.
func (r *Recipe) Plan(names ...string) (*Plan, error) {
	plan := &Plan{}
	visited := sets.New[string]()
	inStack := sets.New[string]()

	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		target, ok := r.targets[name]
		if !ok {
			return errors.TargetNotFound(name, r.Names())
		}
		if inStack.Has(name) {
			// Reconstruct the cycle path for the error message.
			cycle := []string{name}
			for i := len(stack) - 1; i >= 0; i-- {
				cycle = append([]string{stack[i]}, cycle...)
				if stack[i] == name {
					break
				}
			}
			return errors.TargetCycle(cycle)
		}
		if visited.Has(name) {
			return nil
		}

		inStack.Add(name)
		for _, need := range target.Needs {
			if err := visit(need, append(stack, name)); err != nil {
				return err
			}
		}
		inStack.Delete(name)

		visited.Add(name)
		plan.Targets = append(plan.Targets, target)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// Names returns the planned target names in execution order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		out[i] = t.Name
	}
	return out
}
