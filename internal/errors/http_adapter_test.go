package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: http.StatusOK,
		},
		{
			name:     "validation error",
			err:      New(CategoryValidation, SeverityError, "invalid input"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "config error",
			err:      New(CategoryConfig, SeverityFatal, "bad config"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "network error",
			err:      New(CategoryNetwork, SeverityFatal, "nats unreachable"),
			expected: http.StatusBadGateway,
		},
		{
			name:     "docs error",
			err:      New(CategoryDocs, SeverityError, "broken links"),
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "daemon error",
			err:      New(CategoryDaemon, SeverityError, "queue full"),
			expected: http.StatusServiceUnavailable,
		},
		{
			name:     "internal error",
			err:      New(CategoryInternal, SeverityFatal, "broken invariant"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "unclassified error",
			err:      &customHTTPError{msg: "unknown error"},
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.StatusCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("StatusCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		checkJSON      bool
	}{
		{
			name:           "nil error",
			err:            nil,
			expectedStatus: http.StatusOK,
			checkJSON:      false,
		},
		{
			name:           "validation error",
			err:            New(CategoryValidation, SeverityError, "invalid input"),
			expectedStatus: http.StatusBadRequest,
			checkJSON:      true,
		},
		{
			name:           "tool error",
			err:            ToolFailed("pytest", 1, nil),
			expectedStatus: http.StatusUnprocessableEntity,
			checkJSON:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			adapter.WriteErrorResponse(w, tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("WriteErrorResponse() status = %v, want %v", w.Code, tt.expectedStatus)
			}

			if tt.checkJSON {
				var response HTTPErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
					t.Errorf("WriteErrorResponse() invalid JSON: %v", err)
				}

				if response.Error == "" {
					t.Error("WriteErrorResponse() missing error message")
				}

				if response.Code == "" {
					t.Error("WriteErrorResponse() missing error code")
				}

				contentType := w.Header().Get("Content-Type")
				if contentType != "application/json" {
					t.Errorf("WriteErrorResponse() content-type = %v, want application/json", contentType)
				}
			}
		})
	}
}

func TestHTTPErrorAdapter_FormatErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	t.Run("error with context", func(t *testing.T) {
		err := New(CategoryValidation, SeverityError, "invalid field").
			WithContext("field", "codestyle.line_length")
		response := adapter.FormatErrorResponse(err)

		if response.Error != "invalid field" {
			t.Errorf("FormatErrorResponse() error = %q, want %q", response.Error, "invalid field")
		}
		if response.Code != string(CategoryValidation) {
			t.Errorf("FormatErrorResponse() code = %q, want %q", response.Code, CategoryValidation)
		}
		if response.Details["field"] != "codestyle.line_length" {
			t.Errorf("FormatErrorResponse() details[field] = %v, want codestyle.line_length", response.Details["field"])
		}
	})

	t.Run("retryable error", func(t *testing.T) {
		err := Retryable(CategoryNetwork, SeverityWarning, "network timeout")
		response := adapter.FormatErrorResponse(err)

		if !response.Retryable {
			t.Error("FormatErrorResponse() missing retryable flag for retryable error")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		response := adapter.FormatErrorResponse(&customHTTPError{msg: "boom"})
		if response.Error != "boom" {
			t.Errorf("FormatErrorResponse() error = %q, want %q", response.Error, "boom")
		}
		if response.Code != "" {
			t.Errorf("FormatErrorResponse() code = %q, want empty", response.Code)
		}
	})
}

// customHTTPError is a test helper for unclassified errors.
type customHTTPError struct {
	msg string
}

func (e *customHTTPError) Error() string {
	return e.msg
}
