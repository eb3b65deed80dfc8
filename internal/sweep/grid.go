// Package sweep expands parameter grids into concrete runs and hands them to
// an execution backend. A sweep groups experiments; each experiment is a base
// command plus an ordered grid whose cartesian product yields one run per
// combination.
package sweep

import (
	"fmt"
	"math/rand"
	"strings"
)

// Param is one resolved key/value pair of a run.
type Param struct {
	Key   string
	Value string
}

// Axis is one grid dimension.
type Axis struct {
	Key    string
	Values []string
}

// Grid is an ordered list of axes. Order matters: the first axis varies
// slowest in the expansion.
type Grid []Axis

// Size returns the number of combinations the grid expands to.
func (g Grid) Size() int {
	n := 1
	for _, axis := range g {
		n *= len(axis.Values)
	}
	return n
}

// Expand returns the cartesian product of all axes. An empty grid yields a
// single empty combination.
func (g Grid) Expand() [][]Param {
	combos := [][]Param{{}}
	for _, axis := range g {
		next := make([][]Param, 0, len(combos)*len(axis.Values))
		for _, combo := range combos {
			for _, value := range axis.Values {
				extended := make([]Param, len(combo), len(combo)+1)
				copy(extended, combo)
				extended = append(extended, Param{Key: axis.Key, Value: value})
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

func shuffleCombos(combos [][]Param, rng *rand.Rand) {
	rng.Shuffle(len(combos), func(i, j int) {
		combos[i], combos[j] = combos[j], combos[i]
	})
}

// comboSuffix renders a combination as a run-name suffix, one _key_value
// segment per param in grid order.
func comboSuffix(combo []Param) string {
	if len(combo) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range combo {
		b.WriteByte('_')
		b.WriteString(sanitizeToken(p.Key))
		b.WriteByte('_')
		b.WriteString(sanitizeToken(p.Value))
	}
	return b.String()
}

// sanitizeToken keeps run names filesystem and shell safe. Anything outside
// [A-Za-z0-9._-] becomes an underscore.
func sanitizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// formatValue renders a grid value the way it should appear on a command line.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		// Avoid 1e+06 style output for round floats.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
