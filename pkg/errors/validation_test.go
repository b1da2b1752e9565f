package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateRunName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"simple", "ibm01", false},
		{"with spaces", "nightly run 3", false},
		{"with dot", "ibm01.hgr", false},

		{"too long", strings.Repeat("a", MaxNameLength+1), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"slash", "runs/ibm01", true},
		{"backslash", "foo\\bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "6f1c2a34-5b6d-4e7f-8a9b-0c1d2e3f4a5b", false},
		{"empty", "", true},
		{"garbage", "not-a-uuid", true},
		{"traversal", "../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateRunID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidID)
			}
		})
	}
}

func TestValidateEpsilon(t *testing.T) {
	tests := []struct {
		input   float64
		wantErr bool
	}{
		{0, false},
		{0.03, false},
		{MaxEpsilon, false},
		{-0.01, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}

	for _, tt := range tests {
		if err := ValidateEpsilon(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateEpsilon(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateTrials(t *testing.T) {
	for _, n := range []int{1, 32, MaxTrials} {
		if err := ValidateTrials(n); err != nil {
			t.Errorf("ValidateTrials(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{0, -1, MaxTrials + 1} {
		if err := ValidateTrials(n); err == nil {
			t.Errorf("ValidateTrials(%d) = nil, want error", n)
		}
	}
}
