// Package errors provides structured error handling for netscan operations.
// It defines error codes, error types, and utilities for creating and
// classifying errors, including the exit-code mapping used by the CLI.
package errors

import (
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"
	CodePermission    ErrorCode = "PERMISSION"

	// Scanning and probing errors.
	CodeInvalidSpec           ErrorCode = "INVALID_SPEC"
	CodeResolutionFailure     ErrorCode = "RESOLUTION_FAILURE"
	CodeProbeTimeout          ErrorCode = "PROBE_TIMEOUT"
	CodeHostUnreachable       ErrorCode = "HOST_UNREACHABLE"
	CodeNetworkUnreachable    ErrorCode = "NETWORK_UNREACHABLE"
	CodeIncompleteAggregation ErrorCode = "INCOMPLETE_AGGREGATION"

	// Discovery errors.
	CodeDiscoveryFailed ErrorCode = "DISCOVERY_FAILED"

	// External tool errors.
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	CodeToolFailed   ErrorCode = "TOOL_FAILED"
)

// CLI exit codes, per the toolkit's convention.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUnreachable = 2
	ExitTimeout     = 3
)

// ScanError represents an error that occurred during scanning operations.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{Code: code, Message: message}
}

// NewScanErrorWithTarget creates a scan error for a specific target.
func NewScanErrorWithTarget(code ErrorCode, message, target string) *ScanError {
	return &ScanError{Code: code, Message: message, Target: target}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{Code: code, Message: message, Cause: err}
}

// DiscoveryError represents subnet discovery errors.
type DiscoveryError struct {
	Code    ErrorCode
	Message string
	Network string
	Cause   error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	if e.Network != "" {
		return fmt.Sprintf("[%s] %s (network: %s)", e.Code, e.Message, e.Network)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// NewDiscoveryError creates a new discovery error.
func NewDiscoveryError(code ErrorCode, message string) *DiscoveryError {
	return &DiscoveryError{Code: code, Message: message}
}

// WrapDiscoveryError wraps an existing error as a discovery error.
func WrapDiscoveryError(code ErrorCode, message, network string, err error) *DiscoveryError {
	return &DiscoveryError{Code: code, Message: message, Network: network, Cause: err}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{Code: code, Message: message}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{Code: code, Message: message, Field: field, Value: value}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error if it has one.
func GetCode(err error) ErrorCode {
	switch e := err.(type) {
	case *ScanError:
		return e.Code
	case *DiscoveryError:
		return e.Code
	case *ConfigError:
		return e.Code
	}
	return CodeUnknown
}

// ExitCode maps an error to the CLI exit-code convention:
// 0 success, 1 general error, 2 network/host unreachable, 3 timeout.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetCode(err) {
	case CodeHostUnreachable, CodeNetworkUnreachable, CodeResolutionFailure:
		return ExitUnreachable
	case CodeTimeout, CodeProbeTimeout, CodeCanceled:
		return ExitTimeout
	default:
		return ExitError
	}
}

// IsFatal determines if an error indicates a defect rather than a routine
// network failure. CodeIncompleteAggregation is the internal invariant check
// of the result aggregator and should never occur in normal operation.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeIncompleteAggregation, CodePermission, CodeConfiguration:
		return true
	default:
		return false
	}
}

// Common error creation functions

// ErrInvalidSpec creates an error for a malformed port or subnet specification.
func ErrInvalidSpec(spec string) *ScanError {
	return NewScanErrorWithTarget(CodeInvalidSpec, "invalid specification", spec)
}

// ErrResolutionFailure creates an error for hosts that could not be resolved.
func ErrResolutionFailure(target string) *ScanError {
	return NewScanErrorWithTarget(CodeResolutionFailure, "hostname resolution failed", target)
}

// ErrScanTimeout creates an error for scan timeouts.
func ErrScanTimeout(target string) *ScanError {
	return NewScanErrorWithTarget(CodeTimeout, "scan operation timed out", target)
}

// ErrHostUnreachable creates an error for unreachable hosts.
func ErrHostUnreachable(target string) *ScanError {
	return NewScanErrorWithTarget(CodeHostUnreachable, "host is unreachable", target)
}

// ErrIncompleteAggregation creates the defensive invariant-violation error
// raised when aggregated outcomes do not cover every expanded target.
func ErrIncompleteAggregation(expected, actual int) *ScanError {
	return NewScanError(CodeIncompleteAggregation,
		fmt.Sprintf("expected %d outcomes, aggregated %d", expected, actual))
}
