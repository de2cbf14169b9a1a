package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ArgumentError represents invalid input supplied at construction time
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

// Status returns the HTTP status code for the error
func (e *ArgumentError) Status() int {
	return http.StatusInternalServerError
}

// NotFoundError represents a record that does not exist in a collection
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("the record %s in %s does not exist", e.ID, e.Collection)
}

// Status returns the HTTP status code for the error
func (e *NotFoundError) Status() int {
	return http.StatusNotFound
}

// ValidationError represents a failed precondition: a duplicate identifier
// or stored content that could not be decoded.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error
func (e *ValidationError) Status() int {
	return http.StatusBadRequest
}

// ConflictError is returned by backends when another writer changed the
// document since it was read.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return "write conflict"
	}
	return e.Message
}

// Status returns the HTTP status code for the error
func (e *ConflictError) Status() int {
	return http.StatusConflict
}

// NewArgumentError creates an ArgumentError
func NewArgumentError(format string, args ...interface{}) error {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

// NewValidationError creates a ValidationError
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsArgument reports whether err is an ArgumentError
func IsArgument(err error) bool {
	var target *ArgumentError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// StatusOf maps an error to an HTTP status code
func StatusOf(err error) int {
	var status interface{ Status() int }
	if errors.As(err, &status) {
		return status.Status()
	}
	return http.StatusInternalServerError
}
