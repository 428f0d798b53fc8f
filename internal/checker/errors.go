package checker

import "codeberg.org/mutker/battwarn/internal/errors"

const (
	ErrReadBattery   = errors.ErrorCode("checker_read_battery_failed")
	ErrMissingSender = errors.ErrorCode("checker_missing_sender")
)
