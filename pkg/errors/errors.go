// Package errors defines the error taxonomy shared by the reconciliation
// pipeline, the calculation store and the master-data sync engine.
package errors

import (
	"errors"
	"fmt"
)

// New is an alias for the standard library errors.New
var New = errors.New

// Sentinels matched by the typed errors below
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrConnectivity = errors.New("source unreachable")
	ErrAudit        = errors.New("audit write failed")
)

// InputError is a row-level problem in imported data.
// Line is the 1-based source line, 0 when the whole input is unreadable.
type InputError struct {
	Line    int
	Field   string
	Message string
}

// Error implements the error interface
func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("input: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("input: %s", e.Message)
}

// Is implements errors.Is support
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInputError creates a new InputError
func NewInputError(line int, field, message string) *InputError {
	return &InputError{Line: line, Field: field, Message: message}
}

// ValidationError rejects a single operation without changing state
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NotFoundError reports an unknown reference
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError reports that the caller must confirm before proceeding
type ConflictError struct {
	Resource string
	Key      string
	Message  string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Resource, e.Key, e.Message)
	}
	return fmt.Sprintf("%s %s already exists", e.Resource, e.Key)
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, key, message string) *ConflictError {
	return &ConflictError{Resource: resource, Key: key, Message: message}
}

// ConnectivityError reports that an external source could not be reached
type ConnectivityError struct {
	Source string
	Err    error
}

// Error implements the error interface
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// NewConnectivityError creates a new ConnectivityError
func NewConnectivityError(source string, err error) *ConnectivityError {
	return &ConnectivityError{Source: source, Err: err}
}

// AuditError reports a failed audit write. It never aborts the primary operation.
type AuditError struct {
	Action string
	Err    error
}

// Error implements the error interface
func (e *AuditError) Error() string {
	return fmt.Sprintf("audit %s: %v", e.Action, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AuditError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuditError) Is(target error) bool {
	return target == ErrAudit
}

// IsInputError reports whether err is an InputError
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsConnectivity reports whether err is a ConnectivityError
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}
