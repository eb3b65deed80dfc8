package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if lre, ok := err.(*LabRunnerError); ok {
		return a.exitCodeFromLabRunner(lre)
	}

	return 1
}

// exitCodeFromLabRunner maps LabRunnerError to exit codes. Config and usage
// problems exit 2; a failed tool's own exit code passes through so callers
// see the same code they would get running the tool directly.
func (a *CLIErrorAdapter) exitCodeFromLabRunner(err *LabRunnerError) int {
	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return 2
	case CategoryTool:
		if code, ok := err.Context["exit_code"].(int); ok && code > 0 {
			return code
		}
		return 1
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if lre, ok := err.(*LabRunnerError); ok {
		return a.formatLabRunner(lre)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatLabRunner formats a LabRunnerError for display.
func (a *CLIErrorAdapter) formatLabRunner(err *LabRunnerError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if lre, ok := err.(*LabRunnerError); ok {
		return lre.Category == CategoryInternal ||
			lre.Category == CategoryRuntime ||
			lre.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if lre, ok := err.(*LabRunnerError); ok {
		level := a.slogLevelFromSeverity(lre.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(lre.Category)),
		}
		if lre.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, lre.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts LabRunnerError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
