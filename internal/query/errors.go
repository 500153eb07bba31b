package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error represents a request the query layer refused to run, or a result
// it could not interpret.
//
// Query errors include:
//   - Invalid request: malformed group-by, variables, filter or aggregate
//   - Ambiguous parameter: a parameter lookup matched several values
//   - Unsupported driver: the connection cannot host the simtime function
//
// Storage failures (missing tables, I/O) are not Errors; they are returned
// wrapped as they come from database/sql.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates the request cannot be turned into SQL.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeAmbiguousParam indicates a parameter pattern matched more than
	// one distinct value.
	ErrCodeAmbiguousParam ErrorCode = "AMBIGUOUS_PARAM"

	// ErrCodeUnsupportedDriver indicates the connection is not backed by
	// go-sqlite3.
	ErrCodeUnsupportedDriver ErrorCode = "UNSUPPORTED_DRIVER"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsInvalidRequest returns true if the error is an invalid request error.
// Uses errors.As to handle wrapped errors.
func IsInvalidRequest(err error) bool {
	return hasCode(err, ErrCodeInvalidRequest)
}

// IsAmbiguous returns true if the error is an ambiguous parameter error.
// Uses errors.As to handle wrapped errors.
func IsAmbiguous(err error) bool {
	return hasCode(err, ErrCodeAmbiguousParam)
}

// IsUnsupportedDriver returns true if the connection could not host the
// simtime function.
func IsUnsupportedDriver(err error) bool {
	return hasCode(err, ErrCodeUnsupportedDriver)
}

func hasCode(err error, code ErrorCode) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewAmbiguousParamError creates an Error for a parameter pattern that
// matched several distinct values.
func NewAmbiguousParamError(pattern string, values []string) *Error {
	return &Error{
		Code:    ErrCodeAmbiguousParam,
		Message: fmt.Sprintf("parameter pattern %q matches %d distinct values", pattern, len(values)),
		Details: map[string]string{
			"pattern": pattern,
			"values":  strings.Join(values, ","),
		},
	}
}

func unsupportedDriver(err error) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedDriver,
		Message: "connection cannot register the simtime function",
		Err:     err,
	}
}
