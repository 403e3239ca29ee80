package pool

import "errors"

type ErrorCode string

const (
	ErrorCodeIndex      ErrorCode = "INDEX"
	ErrorCodeValidation ErrorCode = "VALIDATION"
)

type PoolError struct {
	Code ErrorCode
	Msg  string
}

func (e *PoolError) Error() string {
	return e.Msg
}

func NewIndexError(msg string) error {
	return &PoolError{Code: ErrorCodeIndex, Msg: msg}
}

func NewValidationError(msg string) error {
	return &PoolError{Code: ErrorCodeValidation, Msg: msg}
}

func IsIndexError(err error) bool {
	return hasCode(err, ErrorCodeIndex)
}

func IsValidationError(err error) bool {
	return hasCode(err, ErrorCodeValidation)
}

func hasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var pe *PoolError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == code
}
