package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing failures across the refresh pipeline.
const (
	ErrConfig   = "CONFIG"   // bad or missing dashboard config; fatal to start
	ErrConn     = "CONN"     // network/auth failure reaching a database
	ErrQuery    = "QUERY"    // the database rejected the query
	ErrType     = "TYPE"     // variable value does not match its declared type
	ErrScheme   = "SCHEME"   // database URL scheme has no registered connector
	ErrChart    = "CHART"    // show.type has no registered renderer
	ErrNotFound = "NOTFOUND" // unknown instance id or variable key
)

// Error is a structured error with a code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrConn code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrConn,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with formatted multi-line output.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var qErr *Error
	if errors.As(err, &qErr) {
		return qErr.Code == code
	}
	return false
}

// CodeOf returns the code of a structured Error, or empty string for other errors.
func CodeOf(err error) string {
	var qErr *Error
	if errors.As(err, &qErr) {
		return qErr.Code
	}
	return ""
}
