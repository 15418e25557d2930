package validation

import (
	"errors"
	"strings"
	"testing"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
		reason  string
	}{
		{"positive interval", ValidatePositive("scheduler", "interval", 1), false, ""},
		{"zero interval", ValidatePositive("scheduler", "interval", 0), true, "must be positive"},
		{"negative interval", ValidatePositive("scheduler", "interval", -5), true, "must be positive"},

		{"zero ttl", ValidateNonNegative("reporting", "ttl", 0), false, ""},
		{"fractional timeout", ValidateNonNegative("reporting", "timeout", 0.5), false, ""},
		{"negative ttl", ValidateNonNegative("reporting", "ttl", -10.5), true, "cannot be negative"},

		{"overlap low bound", ValidateRange("scheduler", "overlap", 0, 0, 1), false, ""},
		{"overlap high bound", ValidateRange("scheduler", "overlap", 1, 0, 1), false, ""},
		{"overlap above range", ValidateRange("scheduler", "overlap", 7, 0, 1), true, "out of range"},
		{"overlap below range", ValidateRange("scheduler", "overlap", -1, 0, 1), true, "out of range"},

		{"job present", ValidateNotNil("threadpool", "job", struct{}{}), false, ""},
		{"job nil", ValidateNotNil("threadpool", "job", nil), true, "cannot be nil"},

		{"id present", ValidateNotEmpty("scheduler", "id", "nightly"), false, ""},
		{"id empty", ValidateNotEmpty("scheduler", "id", ""), true, "cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.wantErr {
				if tt.err != nil {
					t.Fatalf("unexpected error: %v", tt.err)
				}
				return
			}

			var valErr *tperrors.ValidationError
			if !errors.As(tt.err, &valErr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", tt.err, tt.err)
			}
			if valErr.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", valErr.Reason, tt.reason)
			}
			if valErr.Hint == "" {
				t.Error("expected a hint")
			}
			if !errors.Is(tt.err, tperrors.ErrInvalidConfiguration) {
				t.Error("validation errors should match ErrInvalidConfiguration")
			}
		})
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	err := ValidateRange("scheduler", "overlap", 7, 0, 1)

	var valErr *tperrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if valErr.Module != "scheduler" || valErr.Field != "overlap" {
		t.Errorf("module/field = %s/%s, want scheduler/overlap", valErr.Module, valErr.Field)
	}
	if valErr.Value != 7 {
		t.Errorf("value = %v, want 7", valErr.Value)
	}
	if !strings.Contains(valErr.Hint, "between 0 and 1") {
		t.Errorf("hint = %q, want range bounds", valErr.Hint)
	}

	msg := err.Error()
	for _, part := range []string{"scheduler", "overlap", "out of range"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error %q does not mention %q", msg, part)
		}
	}
}
