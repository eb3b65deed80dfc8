package config

import (
	"fmt"
	"strings"
	"time"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig performs canonicalization on enumerated and bounded fields prior to validation.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeLogging(&c.Logging, res)
	normalizeCodestyle(&c.Codestyle, res)
	for i := range c.Sweeps {
		normalizeSweep(&c.Sweeps[i], res)
	}
	normalizeWatch(&c.Daemon.Watch, res)
	return res, nil
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if strings.TrimSpace(string(l.Level)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	} else {
		l.Level = LogLevelInfo
	}

	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	} else if strings.TrimSpace(string(l.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	} else {
		l.Format = LogFormatText
	}
}

func normalizeCodestyle(cs *CodestyleConfig, res *NormalizationResult) {
	if cs.LineLength < 0 {
		res.Warnings = append(res.Warnings, warnChanged("codestyle.line_length", cs.LineLength, DefaultLineLength))
		cs.LineLength = DefaultLineLength
	}
	// Ignore codes are upper-cased and deduplicated, preserving first-seen order.
	seen := make(map[string]bool, len(cs.IgnoreCodes))
	out := cs.IgnoreCodes[:0]
	for _, code := range cs.IgnoreCodes {
		canonical := strings.ToUpper(strings.TrimSpace(code))
		if canonical == "" || seen[canonical] {
			continue
		}
		if canonical != code {
			res.Warnings = append(res.Warnings, warnChanged("codestyle.ignore", code, canonical))
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	cs.IgnoreCodes = out
}

func normalizeSweep(s *SweepConfig, res *NormalizationResult) {
	field := fmt.Sprintf("sweeps.%s.backend", s.Name)
	if b := NormalizeSweepBackend(s.Backend); b != "" {
		if s.Backend != string(b) {
			res.Warnings = append(res.Warnings, warnChanged(field, s.Backend, b))
			s.Backend = string(b)
		}
	} else if strings.TrimSpace(s.Backend) != "" {
		res.Warnings = append(res.Warnings, warnUnknown(field, s.Backend, string(BackendProcesses)))
		s.Backend = string(BackendProcesses)
	}

	if s.Devices < 0 {
		res.Warnings = append(res.Warnings, warnChanged(fmt.Sprintf("sweeps.%s.devices", s.Name), s.Devices, 0))
		s.Devices = 0
	}
	if s.PauseBetween != "" {
		if _, err := time.ParseDuration(s.PauseBetween); err != nil {
			res.Warnings = append(res.Warnings, warnUnknown(fmt.Sprintf("sweeps.%s.pause_between", s.Name), s.PauseBetween, "0s"))
			s.PauseBetween = ""
		}
	}
}

func normalizeWatch(w *WatchConfig, res *NormalizationResult) {
	if w.Debounce == "" {
		return
	}
	if _, err := time.ParseDuration(w.Debounce); err != nil {
		res.Warnings = append(res.Warnings, warnUnknown("daemon.watch.debounce", w.Debounce, "2s"))
		w.Debounce = "2s"
	}
}

func warnChanged(field string, from, to interface{}) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
