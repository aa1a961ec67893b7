package measure

import (
	"errors"
	"fmt"
)

// BuildError reports a compilation failure for one candidate. Caught
// per-candidate and converted into a failed Result; never aborts a
// batch.
type BuildError struct {
	// Detail describes the compiler failure.
	Detail string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed: %s", e.Detail)
}

// IsBuildError returns true if the error is a BuildError.
// Uses errors.As to handle wrapped errors.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// DeviceError reports an execution failure or device unavailability.
// Per-candidate occurrences become failed Results; at session start
// (Ping) it is fatal.
type DeviceError struct {
	// Detail describes the device failure.
	Detail string
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error: %s", e.Detail)
}

// IsDeviceError returns true if the error is a DeviceError.
// Uses errors.As to handle wrapped errors.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}
