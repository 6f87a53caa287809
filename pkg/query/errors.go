package query

import (
	"errors"
	"fmt"
)

// ErrorCode classifies user-facing query errors. These stem from invalid
// input, not transient conditions, so callers reject the operation and
// report upstream without retrying.
type ErrorCode int

const (
	CodeInvalidOptions ErrorCode = iota + 1
	CodeBadValue
	CodeFailedToParse
)

func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidOptions:
		return "InvalidOptions"
	case CodeBadValue:
		return "BadValue"
	case CodeFailedToParse:
		return "FailedToParse"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is a user-facing query error carrying a code and message
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Errorf builds an Error with a formatted message
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err is a query Error with the given code
func HasCode(err error, code ErrorCode) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Code == code
}
