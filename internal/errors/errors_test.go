package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestLabRunnerError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *LabRunnerError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestLabRunnerError_WithContext(t *testing.T) {
	err := New(CategoryTool, SeverityWarning, "tool exited with failure").
		WithContext("tool", "ruff").
		WithContext("target", "check-codestyle")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["tool"] != "ruff" {
		t.Errorf("Context[tool] = %v, want ruff", err.Context["tool"])
	}

	if err.Context["target"] != "check-codestyle" {
		t.Errorf("Context[target] = %v, want check-codestyle", err.Context["target"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	toolErr := New(CategoryTool, SeverityWarning, "tool error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match tool category", configErr, CategoryTool, false},
		{"tool error matches tool category", toolErr, CategoryTool, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryableErr := Retryable(CategoryNetwork, SeverityWarning, "timeout")
	nonRetryableErr := New(CategoryConfig, SeverityFatal, "invalid")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable error", retryableErr, true},
		{"non-retryable error", nonRetryableErr, false},
		{"standard error", standardErr, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsRetryable(test.err)
			if result != test.expected {
				t.Errorf("IsRetryable() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	// Test a few convenience functions
	t.Run("ConfigNotFound", func(t *testing.T) {
		err := ConfigNotFound("/path/to/labrunner.yaml")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/path/to/labrunner.yaml" {
			t.Errorf("Context[path] = %v, want /path/to/labrunner.yaml", err.Context["path"])
		}
	})

	t.Run("ToolFailed", func(t *testing.T) {
		cause := fmt.Errorf("exit status 1")
		err := ToolFailed("flake8", 1, cause)
		if err.Category != CategoryTool {
			t.Errorf("Category = %v, want %v", err.Category, CategoryTool)
		}
		if err.Context["exit_code"] != 1 {
			t.Errorf("Context[exit_code] = %v, want 1", err.Context["exit_code"])
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})

	t.Run("TargetCycle", func(t *testing.T) {
		err := TargetCycle([]string{"test", "build", "test"})
		if err.Category != CategoryRecipe {
			t.Errorf("Category = %v, want %v", err.Category, CategoryRecipe)
		}
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		err := ValidationFailed("codestyle.line_length", "must be positive")
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if err.Context["field"] != "codestyle.line_length" {
			t.Errorf("Context[field] = %v, want codestyle.line_length", err.Context["field"])
		}
		if err.Context["reason"] != "must be positive" {
			t.Errorf("Context[reason] = %v, want must be positive", err.Context["reason"])
		}
	})
}

func TestExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag"), 2},
		{"config", ConfigNotFound("x.yaml"), 2},
		{"tool mirrors exit code", ToolFailed("black", 123, fmt.Errorf("exit status 123")), 123},
		{"tool without exit code", New(CategoryTool, SeverityError, "not found"), 1},
		{"daemon", DaemonError("not running"), 1},
		{"plain error", fmt.Errorf("boom"), 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.code {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.code)
			}
		})
	}
}
