// Package orcerr provides structured error types for the orchestration engine.
package orcerr

import (
	"fmt"
	"strings"
)

// Code identifies a class of engine error.
type Code string

const (
	// CodeUnknownMode indicates a submitted or requested mode is not registered.
	CodeUnknownMode Code = "UNKNOWN_MODE"
	// CodeDuplicateTask indicates submit was called twice with the same task id.
	CodeDuplicateTask Code = "DUPLICATE_TASK"
	// CodeProviderError indicates a provider call failed.
	CodeProviderError Code = "PROVIDER_ERROR"
	// CodeTimeout indicates a task exceeded its mode's task_timeout.
	CodeTimeout Code = "TIMEOUT"
	// CodeInternal indicates an unexpected error inside the executor.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Category groups error codes for coarse classification.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryBadRequest
	CategoryConflict
	CategoryInternal
	CategoryTimeout
)

var codeCategories = map[Code]Category{
	CodeUnknownMode:   CategoryBadRequest,
	CodeDuplicateTask: CategoryConflict,
	CodeProviderError: CategoryInternal,
	CodeTimeout:       CategoryTimeout,
	CodeInternal:      CategoryInternal,
}

// Error is the structured error type returned by the engine.
type Error struct {
	Code  Code
	What  string
	Why   string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the coarse classification for this error's code.
func (e *Error) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// New constructs a new structured error.
func New(code Code, what string, why string) *Error {
	return &Error{Code: code, What: what, Why: why}
}

// Wrap constructs a new structured error around a cause.
func Wrap(code Code, what string, cause error) *Error {
	return &Error{Code: code, What: what, Cause: cause}
}

// Is implements error matching by code, so errors.Is(err, orcerr.New(CodeX, ...))
// matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	// ErrUnknownMode is the sentinel matched via errors.Is for unknown modes.
	ErrUnknownMode = &Error{Code: CodeUnknownMode, What: "unknown mode"}
	// ErrDuplicateTask is the sentinel matched via errors.Is for duplicate submits.
	ErrDuplicateTask = &Error{Code: CodeDuplicateTask, What: "duplicate task"}
)

// UnknownMode builds an UnknownMode error for the given mode name.
func UnknownMode(mode string) *Error {
	return New(CodeUnknownMode, "unknown mode", fmt.Sprintf("mode %q is not registered", mode))
}

// DuplicateTask builds a DuplicateTask error for the given task id.
func DuplicateTask(taskID string) *Error {
	return New(CodeDuplicateTask, "duplicate task", fmt.Sprintf("task %q already exists", taskID))
}
