package vehicle

import "errors"

var (
	// ErrNoGimbal is returned when gimbal input is requested from an engine that cannot gimbal.
	ErrNoGimbal = errors.New("vehicle: engine does not gimbal")
	// ErrUnknownUnit is returned for volume units other than m3, dm3/l and cm3/ml.
	ErrUnknownUnit = errors.New("vehicle: unknown volume unit")
	// ErrUnknownPart is returned when a part id is not attached to the vehicle.
	ErrUnknownPart = errors.New("vehicle: unknown part")
	// ErrDuplicatePart is returned when a part id is attached twice.
	ErrDuplicatePart = errors.New("vehicle: duplicate part id")
	// ErrInvalidPart wraps configuration problems found while initialising a part.
	ErrInvalidPart = errors.New("vehicle: invalid part config")
)
