package notify

import "codeberg.org/mutker/battwarn/internal/errors"

const (
	ErrNotifyFailed = errors.ErrorCode("notify_failed")
	ErrEmptyCommand = errors.ErrorCode("notify_empty_command")
)
