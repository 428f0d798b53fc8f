package errors

// ErrorCode identifies a failure class across packages. Codes are compared
// with HasCode or with Is against an error created from the same code.
type ErrorCode string

// Coded is implemented by any error that carries an ErrorCode
type Coded interface {
	Code() ErrorCode
}

// Error is a domain error with a code, an optional cause and context data
type Error interface {
	error
	Coded
	WithMessage(msg string) Error
	WithData(data any) Error
	Unwrap() error
}

// Factory creates domain errors
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
