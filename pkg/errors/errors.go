// Package errors provides the domain error types shared by the transcript engine.
//
// Sentinel errors describe the condition; typed errors carry the detail and
// unwrap to their sentinel so callers can branch with errors.Is or errors.As.
//
// Usage:
//
//	import auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
//
//	if auerrors.IsNotFound(err) {
//	    // unknown speaker or record
//	}
package errors

import (
	"errors"
	"fmt"
)

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested speaker or record was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate speaker name).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// ParseError reports a malformed timestamp.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse timestamp %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrValidation
}

// DuplicateSpeakerError reports an explicit registration of a name that is
// already present, compared case-insensitively.
type DuplicateSpeakerError struct {
	Name string
}

func (e *DuplicateSpeakerError) Error() string {
	return fmt.Sprintf("speaker %q already registered", e.Name)
}

func (e *DuplicateSpeakerError) Unwrap() error {
	return ErrConflict
}

// NotFoundError reports a lookup of an unknown speaker or record.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Kinds used with NotFoundError.
const (
	KindSpeaker = "speaker"
	KindRecord  = "record"
	KindCase    = "case"
)
