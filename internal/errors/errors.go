// Package errors provides structured error types and exit codes for behaverun.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (test failures, launch failures, etc.)
	ExitConfigError      = 2 // Configuration error (invalid settings, etc.)
	ExitEnvironmentError = 3 // Environment error (runner tool missing, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindLaunch
	KindConsistency
	KindEnvironment
)

// String returns the error kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "ConfigurationError"
	case KindNotFound:
		return "NotFoundError"
	case KindLaunch:
		return "LaunchError"
	case KindConsistency:
		return "ConsistencyError"
	case KindEnvironment:
		return "EnvironmentError"
	default:
		return "RuntimeError"
	}
}

// Error is the base error type for behaverun.
type Error struct {
	Kind    ErrorKind
	Message string
	Project string // Project name if applicable
	Unit    string // Execution unit id if applicable
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil && msg == "" {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Project != "" && e.Unit != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Project, e.Unit, msg)
	}
	if e.Project != "" {
		return fmt.Sprintf("[%s] %s", e.Project, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	case KindLaunch:
		// A unit that could not start because the runner tool is missing.
		if KindOf(e.Cause) == KindEnvironment {
			return ExitEnvironmentError
		}
		return ExitRuntimeError
	default:
		return ExitRuntimeError
	}
}

// WithProject returns a copy of the error tagged with a project name.
func (e *Error) WithProject(project string) *Error {
	c := *e
	c.Project = project
	return &c
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *Error {
	return Environment(fmt.Sprintf(format, args...))
}

// Launch creates an error for an execution unit whose process could not be
// started or produced no results.
func Launch(project, unit string, cause error) *Error {
	return &Error{
		Kind:    KindLaunch,
		Project: project,
		Unit:    unit,
		Message: "launch failed",
		Cause:   cause,
	}
}

// Launchf creates a launch error with formatting and no underlying cause.
func Launchf(project, unit, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindLaunch,
		Project: project,
		Unit:    unit,
		Message: fmt.Sprintf(format, args...),
	}
}

// Consistencyf creates a consistency error with formatting.
func Consistencyf(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindConsistency,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
		Cause:   err,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// KindOf returns the kind of the first *Error in err's chain.
// Errors that are not *Error report KindRuntime.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRuntime
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	return err != nil && KindOf(err) == KindConfig
}

// IsLaunch reports whether err is a launch error.
func IsLaunch(err error) bool {
	return err != nil && KindOf(err) == KindLaunch
}

// IsConsistency reports whether err is a consistency error.
func IsConsistency(err error) bool {
	return err != nil && KindOf(err) == KindConsistency
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitRuntimeError
}
