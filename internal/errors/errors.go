// Package errors defines the closed error taxonomy used across snapfire.
//
// Every failure raised by this module is one of the kinds below. Builder
// errors abort startup, render errors surface as HTTP 500, watcher callback
// errors are logged and discarded, and session errors terminate only the
// session that raised them.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes snapfire errors.
type ErrorType string

const (
	ErrorTypeTemplateEngine ErrorType = "template_engine"
	ErrorTypeIO             ErrorType = "io"
	ErrorTypeSerialization  ErrorType = "serialization"
	ErrorTypeWatcherInit    ErrorType = "watcher_init"
	ErrorTypeInternal       ErrorType = "internal"
)

// SnapfireError is a structured error with kind, code, and cause.
type SnapfireError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *SnapfireError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SnapfireError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *SnapfireError) Is(target error) bool {
	var t *SnapfireError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithComponent adds component context.
func (e *SnapfireError) WithComponent(component string) *SnapfireError {
	e.Component = component

	return e
}

// Error creation functions

// NewTemplateError creates a template engine error (parse or render failure).
func NewTemplateError(code, message string, cause error) *SnapfireError {
	return &SnapfireError{
		Type:        ErrorTypeTemplateEngine,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error, typically from reading template files.
func NewIOError(code, message string, cause error) *SnapfireError {
	return &SnapfireError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewSerializationError creates an error for a context value the engine
// rejects.
func NewSerializationError(code, message string) *SnapfireError {
	return &SnapfireError{
		Type:        ErrorTypeSerialization,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewWatcherInitError creates a watcher startup error. Recoverable only by
// retrying with corrected paths.
func NewWatcherInitError(code, message string, cause error) *SnapfireError {
	return &SnapfireError{
		Type:        ErrorTypeWatcherInit,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SnapfireError {
	return &SnapfireError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsTemplateError checks if an error is template-engine related.
func IsTemplateError(err error) bool {
	var se *SnapfireError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeTemplateEngine
	}

	return false
}

// IsWatcherInitError checks if an error is a watcher startup failure.
func IsWatcherInitError(err error) bool {
	var se *SnapfireError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeWatcherInit
	}

	return false
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var se *SnapfireError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// Common error codes.
const (
	ErrCodeTemplateParse    = "ERR_TEMPLATE_PARSE"
	ErrCodeTemplateRender   = "ERR_TEMPLATE_RENDER"
	ErrCodeTemplateNotFound = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeTemplateRoot     = "ERR_TEMPLATE_ROOT"
	ErrCodeWatcherCreate    = "ERR_WATCHER_CREATE"
	ErrCodeWatchRegister    = "ERR_WATCH_REGISTER"
	ErrCodeContextKey       = "ERR_CONTEXT_KEY"
	ErrCodeBodyBuffer       = "ERR_BODY_BUFFER"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternal         = "ERR_INTERNAL"
)

// Helper constructors for common failures

// ErrTemplateNotFound creates a render error for an unknown template name.
func ErrTemplateNotFound(name string) *SnapfireError {
	return NewTemplateError(ErrCodeTemplateNotFound, "template not found: "+name, nil)
}

// ErrTemplateRoot creates a startup error for a missing template watch root.
func ErrTemplateRoot(root string) *SnapfireError {
	return NewWatcherInitError(ErrCodeTemplateRoot, "template root does not exist: "+root, nil)
}

// ErrContextKey creates an error for a context key the engine cannot accept.
func ErrContextKey(key string) *SnapfireError {
	return NewSerializationError(ErrCodeContextKey, "invalid context key: "+key)
}
