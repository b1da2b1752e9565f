package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Request limits enforced by the validators below.
const (
	MaxNameLength = 128
	MaxTrials     = 1024
	MaxEpsilon    = 10.0
)

// ValidateRunName validates a user supplied run label.
// An empty name is allowed; the rules are intentionally conservative:
//   - Maximum length of MaxNameLength characters
//   - No control characters or null bytes
//   - No path separators
func ValidateRunName(name string) error {
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "run name too long (max %d characters)", MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "run name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "run name cannot contain path separators")
	}

	return nil
}

// ValidateRunID checks that id is a canonical UUID as issued by the runner.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "run id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid run id %q", id)
	}
	return nil
}

// ValidateEpsilon rejects negative, NaN and absurdly large tolerances.
func ValidateEpsilon(eps float64) error {
	if !(eps >= 0) {
		return New(ErrCodeInvalidEpsilon, "epsilon must be a non-negative number, got %v", eps)
	}
	if eps > MaxEpsilon {
		return New(ErrCodeInvalidEpsilon, "epsilon too large (max %v), got %v", MaxEpsilon, eps)
	}
	return nil
}

// ValidateTrials bounds the number of independent partitioning runs.
func ValidateTrials(n int) error {
	if n < 1 || n > MaxTrials {
		return New(ErrCodeInvalidInput, "trials must be between 1 and %d, got %d", MaxTrials, n)
	}
	return nil
}
