package rules

import (
	"errors"
	"fmt"
)

// Code identifies a rule store failure. Codes are surfaced to users verbatim.
type Code string

// Rule store error codes.
const (
	CodeValidation       Code = "validation_error"
	CodeDuplicateName    Code = "duplicate_name"
	CodeInvalidFieldPath Code = "invalid_field_path"
	CodeInvalidRegex     Code = "invalid_regex"
	CodeTemplateNotFound Code = "template_not_found"
	CodeNotFound         Code = "not_found"
)

// Error is a rule store failure.
type Error struct {
	Code    Code
	Message string
	// Field names the offending input field, when there is one.
	Field string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches a sentinel with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Message == "" && t.Field == ""
}

// Sentinels for errors.Is.
var (
	ErrValidation       = &Error{Code: CodeValidation}
	ErrDuplicateName    = &Error{Code: CodeDuplicateName}
	ErrInvalidFieldPath = &Error{Code: CodeInvalidFieldPath}
	ErrInvalidRegex     = &Error{Code: CodeInvalidRegex}
	ErrTemplateNotFound = &Error{Code: CodeTemplateNotFound}
	ErrNotFound         = &Error{Code: CodeNotFound}
)

// CodeOf returns the code carried by err, or "" when err is not a rule error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func validationf(field, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(id string) *Error {
	return &Error{Code: CodeNotFound, Field: "id", Message: fmt.Sprintf("rule %q not found", id)}
}
