package docsite

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Severity grades a check finding.
type Severity int

const (
	// SeverityInfo marks findings that need no action (title drift, changed docs).
	SeverityInfo Severity = iota
	// SeverityWarning marks findings worth fixing that do not break the site.
	SeverityWarning
	// SeverityError marks findings that will break the rendered site.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single check finding.
type Issue struct {
	Path     string   // doc or page path, relative to the checked root
	Severity Severity // finding grade
	Rule     string   // rule identifier, e.g. "nav-path-exists"
	Message  string
}

// Report collects every finding of one check pass.
type Report struct {
	Root       string  // docs dir or rendered site dir
	FilesTotal int     // files examined
	Issues     []Issue // sorted by path, rule, message

	// Fingerprints carries the per-doc content fingerprints computed during
	// Check, for writing an updated manifest. Empty for verify reports.
	Fingerprints map[string]string `json:"-"`
}

// HasErrors reports whether any error-level findings exist.
func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-level findings exist.
func (r *Report) HasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

func (r *Report) count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) add(path string, severity Severity, rule, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Path:     path,
		Severity: severity,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	})
}

// sortIssues fixes the report order so repeated checks print identically.
func (r *Report) sortIssues() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

// Formatter renders a report for output.
type Formatter interface {
	Format(w io.Writer, report *Report) error
}

// NewFormatter selects a formatter by name; anything but "json" is text.
func NewFormatter(format string) Formatter {
	if format == "json" {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter renders a human-readable report.
type TextFormatter struct{}

func (f *TextFormatter) Format(w io.Writer, report *Report) error {
	fmt.Fprintf(w, "Checking documentation in: %s\n", report.Root)
	fmt.Fprintln(w, strings.Repeat("━", 60))

	for _, issue := range report.Issues {
		var icon string
		switch issue.Severity {
		case SeverityError:
			icon = "✗"
		case SeverityWarning:
			icon = "⚠"
		default:
			icon = "ℹ"
		}
		fmt.Fprintf(w, "%s %s\n", icon, issue.Path)
		fmt.Fprintf(w, "  %s [%s]: %s\n", issue.Severity, issue.Rule, issue.Message)
	}

	if len(report.Issues) > 0 {
		fmt.Fprintln(w, strings.Repeat("━", 60))
	}
	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "  %d files scanned\n", report.FilesTotal)
	if n := report.count(SeverityError); n > 0 {
		fmt.Fprintf(w, "  %d error%s\n", n, plural(n))
	}
	if n := report.count(SeverityWarning); n > 0 {
		fmt.Fprintf(w, "  %d warning%s\n", n, plural(n))
	}
	if n := report.count(SeverityInfo); n > 0 {
		fmt.Fprintf(w, "  %d info\n", n)
	}

	switch {
	case report.HasErrors():
		fmt.Fprintln(w, "✗ Documentation has errors that will break the site.")
	case report.HasWarnings():
		fmt.Fprintln(w, "⚠ Documentation has warnings.")
	default:
		fmt.Fprintln(w, "✨ Documentation checks pass.")
	}
	return nil
}

// JSONFormatter renders a machine-readable report.
type JSONFormatter struct{}

type jsonReport struct {
	Root         string      `json:"root"`
	FilesTotal   int         `json:"files_total"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Issues       []jsonIssue `json:"issues"`
}

type jsonIssue struct {
	Path     string `json:"path"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

func (f *JSONFormatter) Format(w io.Writer, report *Report) error {
	out := jsonReport{
		Root:         report.Root,
		FilesTotal:   report.FilesTotal,
		ErrorCount:   report.count(SeverityError),
		WarningCount: report.count(SeverityWarning),
		InfoCount:    report.count(SeverityInfo),
		Issues:       make([]jsonIssue, 0, len(report.Issues)),
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, jsonIssue{
			Path:     issue.Path,
			Severity: issue.Severity.String(),
			Rule:     issue.Rule,
			Message:  issue.Message,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
