package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Errors map[string][]string
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Errors: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Errors[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type NotFoundError struct {
	What string
}

func NotFound(what string) *NotFoundError {
	return &NotFoundError{What: what}
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

type NotAuthorizedError struct {
	Message string
}

func NotAuthorized(message string) *NotAuthorizedError {
	return &NotAuthorizedError{Message: message}
}

func (e *NotAuthorizedError) Error() string {
	if e.Message == "" {
		return "not authorized"
	}
	return e.Message
}

// AlreadyExistsError covers uniqueness conflicts, including the ones the
// database raises when two requests race on the same (subject_id,
// subject_type) pair.
type AlreadyExistsError struct {
	What string
}

func AlreadyExists(what string) *AlreadyExistsError {
	return &AlreadyExistsError{What: what}
}

func (e *AlreadyExistsError) Error() string {
	return e.What + " already exists"
}

// UnsupportedSubjectTypeError signals a registry miss: a configuration
// problem, not user input, so it is never swallowed.
type UnsupportedSubjectTypeError struct {
	Type string
}

func (e *UnsupportedSubjectTypeError) Error() string {
	return "unsupported subject type: " + e.Type
}

type UnsupportedAuthorTypeError struct {
	Type string
}

func (e *UnsupportedAuthorTypeError) Error() string {
	return "unsupported author type: " + e.Type
}
