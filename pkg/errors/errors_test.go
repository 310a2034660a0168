package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrNotFound, true},
		{"wrapped once", fmt.Errorf("rename: %w", ErrNotFound), true},
		{"typed", &NotFoundError{Kind: KindSpeaker, Key: "Ana"}, true},
		{"typed wrapped", fmt.Errorf("session: %w", &NotFoundError{Kind: KindRecord, Key: "7"}), true},
		{"different error", ErrConflict, false},
		{"nil error", nil, false},
		{"unrelated error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrConflict, true},
		{"duplicate speaker", &DuplicateSpeakerError{Name: "Juiz"}, true},
		{"different error", ErrNotFound, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConflict(tt.err); got != tt.want {
				t.Errorf("IsConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct match", ErrValidation, true},
		{"parse error", &ParseError{Input: "x:y", Reason: "non-numeric component"}, true},
		{"different error", ErrInvalidState, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInvalidState(t *testing.T) {
	if !IsInvalidState(fmt.Errorf("play: %w", ErrInvalidState)) {
		t.Error("IsInvalidState() = false for wrapped sentinel")
	}
	if IsInvalidState(ErrNotFound) {
		t.Error("IsInvalidState() = true for ErrNotFound")
	}
}

func TestTypedErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ParseError{Input: "ab", Reason: "non-numeric component"}, `parse timestamp "ab": non-numeric component`},
		{&DuplicateSpeakerError{Name: "Dr. Ana"}, `speaker "Dr. Ana" already registered`},
		{&NotFoundError{Kind: KindSpeaker, Key: "Bob"}, `speaker "Bob" not found`},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
