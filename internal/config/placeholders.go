package config

import (
	"strconv"
	"strings"
)

// Placeholders returns the interpolation table for step and command strings.
// The version value comes from the caller because it is resolved from the
// repository, not from configuration.
func (c *Config) Placeholders(version string) map[string]string {
	return map[string]string{
		"project":      c.Project.Name,
		"dist_dir":     c.Project.DistDir,
		"runs_dir":     c.Project.RunsDir,
		"line_length":  strconv.Itoa(c.Codestyle.LineLength),
		"ignore_codes": strings.Join(c.Codestyle.IgnoreCodes, ","),
		"version":      version,
	}
}

// Interpolate replaces {name} placeholders in s. Unknown placeholders are left
// verbatim so tool-level brace syntax passes through untouched.
func Interpolate(s string, vars map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			b.WriteByte(s[i])
			continue
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		name := s[i+1 : i+end]
		if val, ok := vars[name]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(s[i : i+end+1])
		}
		i += end
	}
	return b.String()
}
