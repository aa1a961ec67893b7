package space

import (
	"errors"
	"fmt"
)

// DefinitionError reports an invalid knob declaration during the
// discovery pass. Definition errors are non-recoverable: they abort the
// pass and surface to the caller.
type DefinitionError struct {
	// Code identifies the error category.
	Code DefinitionErrorCode

	// Knob names the offending knob.
	Knob string

	// Message is a human-readable description.
	Message string
}

// DefinitionErrorCode categorizes definition errors.
type DefinitionErrorCode string

const (
	// ErrCodeDuplicateKnob indicates two knobs were defined with the same name.
	ErrCodeDuplicateKnob DefinitionErrorCode = "DUPLICATE_KNOB"

	// ErrCodeEmptyDomain indicates a knob was defined with no values.
	ErrCodeEmptyDomain DefinitionErrorCode = "EMPTY_DOMAIN"

	// ErrCodeInvalidSplit indicates a split definition with a non-positive
	// extent or part count.
	ErrCodeInvalidSplit DefinitionErrorCode = "INVALID_SPLIT"

	// ErrCodeFrozenSpace indicates a definition was attempted after the
	// discovery pass froze the space.
	ErrCodeFrozenSpace DefinitionErrorCode = "FROZEN_SPACE"
)

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Knob != "" {
		return fmt.Sprintf("%s: %s (knob=%s)", e.Code, e.Message, e.Knob)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDefinitionError returns true if the error is a DefinitionError.
// Uses errors.As to handle wrapped errors.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// DecodeError reports an entity index or ordinal vector that does not
// address a point in its space. Decode errors are non-recoverable for
// the current pass.
type DecodeError struct {
	// Index is the offending flat index (-1 when the failure concerns an
	// ordinal vector rather than a flat index).
	Index int64

	// Size is the space size at the time of the failure.
	Size int64

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("SPACE_DECODE: %s (index=%d, size=%d)", e.Message, e.Index, e.Size)
	}
	return fmt.Sprintf("SPACE_DECODE: %s", e.Message)
}

// IsDecodeError returns true if the error is a DecodeError.
// Uses errors.As to handle wrapped errors.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
