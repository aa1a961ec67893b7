package tuner

import (
	"errors"
	"fmt"
)

// ModelFitError reports that the model-based strategy could not fit a
// regression model, usually because the observed history is too small
// or degenerate. It triggers fallback to random proposals; it never
// aborts a session.
type ModelFitError struct {
	// Reason describes why fitting failed.
	Reason string

	// Have is the number of usable observations.
	Have int

	// Need is the minimum required to attempt a fit.
	Need int
}

// Error implements the error interface.
func (e *ModelFitError) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("model fit: %s (have=%d, need=%d)", e.Reason, e.Have, e.Need)
	}
	return fmt.Sprintf("model fit: %s", e.Reason)
}

// IsModelFitError returns true if the error is a ModelFitError.
// Uses errors.As to handle wrapped errors.
func IsModelFitError(err error) bool {
	var me *ModelFitError
	return errors.As(err, &me)
}
