package battery

import "codeberg.org/mutker/battwarn/internal/errors"

const (
	// Read Errors
	ErrResourceUnavailable = errors.ErrorCode("battery_resource_unavailable")
	ErrParseFailed         = errors.ErrorCode("battery_parse_failed")

	// Arithmetic Errors
	ErrZeroFullEnergy = errors.ErrorCode("battery_zero_full_energy")
)
