package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *LabRunnerError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *LabRunnerError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *LabRunnerError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Recipe errors

func TargetNotFound(name string, known []string) *LabRunnerError {
	return New(CategoryRecipe, SeverityFatal, "target not defined").
		WithContext("target", name).
		WithContext("known_targets", known)
}

func TargetCycle(path []string) *LabRunnerError {
	return New(CategoryRecipe, SeverityFatal, "dependency cycle between targets").
		WithContext("cycle", path)
}

func ToolNotFound(tool string) *LabRunnerError {
	return New(CategoryTool, SeverityFatal, "tool not found on PATH").
		WithContext("tool", tool)
}

func ToolFailed(tool string, exitCode int, cause error) *LabRunnerError {
	return Wrap(cause, CategoryTool, SeverityError, "tool exited with failure").
		WithContext("tool", tool).
		WithContext("exit_code", exitCode)
}

// Sweep errors

func SweepNotFound(name string, known []string) *LabRunnerError {
	return New(CategorySweep, SeverityFatal, "sweep not defined").
		WithContext("sweep", name).
		WithContext("known_sweeps", known)
}

func RunFailed(run string, cause error) *LabRunnerError {
	return Wrap(cause, CategorySweep, SeverityError, "run failed").
		WithContext("run", run)
}

// Docs errors

func DocsConfigError(path string, cause error) *LabRunnerError {
	return Wrap(cause, CategoryDocs, SeverityFatal, "docs site configuration invalid").
		WithContext("path", path)
}

// Filesystem errors

func WorkspaceError(operation string, cause error) *LabRunnerError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Git errors

func GitDescribeError(path string, cause error) *LabRunnerError {
	return Wrap(cause, CategoryGit, SeverityWarning, "repository inspection failed").
		WithContext("path", path)
}

// Network errors

func NetworkTimeout(url string, cause error) *LabRunnerError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

// History errors

func HistoryError(operation string, cause error) *LabRunnerError {
	return Wrap(cause, CategoryHistory, SeverityError, "history store operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *LabRunnerError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
