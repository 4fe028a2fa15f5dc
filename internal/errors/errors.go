package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// UnsupportedShape indicates an element or type shape the identifier grammar cannot render
	UnsupportedShape ErrorCode = "UNSUPPORTED_SHAPE"
	// UnresolvedType indicates a front end could not resolve a type name to a canonical one
	UnresolvedType ErrorCode = "UNRESOLVED_TYPE"
	// BackendUnavailable indicates a backend cannot run in this build or environment
	BackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// BackendNotFound indicates no registered backend matches the request
	BackendNotFound ErrorCode = "BACKEND_NOT_FOUND"
	// InputInvalid indicates a backend input file could not be read or decoded
	InputInvalid ErrorCode = "INPUT_INVALID"
	// SnapshotCorrupt indicates a persisted surface failed fingerprint verification
	SnapshotCorrupt ErrorCode = "SNAPSHOT_CORRUPT"
	// SnapshotNotFound indicates a stored snapshot does not exist
	SnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// APIFPError represents an apifp error with code, message, and suggestions
type APIFPError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new APIFPError without suggested fixes
func New(code ErrorCode, message string, cause error) *APIFPError {
	return &APIFPError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new APIFPError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *APIFPError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// NewWithFixes creates a new APIFPError carrying the default fixes for its code
func NewWithFixes(code ErrorCode, message string, cause error) *APIFPError {
	err := New(code, message, cause)
	err.SuggestedFixes = GetSuggestedFixes(code)
	return err
}

// Error implements the error interface
func (e *APIFPError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *APIFPError) Unwrap() error {
	return e.cause
}

// Is matches another APIFPError by code so errors.Is works against sentinels
func (e *APIFPError) Is(target error) bool {
	var other *APIFPError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code && other.Message == ""
}

// WithDetails adds details to the error
func (e *APIFPError) WithDetails(details interface{}) *APIFPError {
	e.Details = details
	return e
}

// Sentinel returns a code-only error usable as an errors.Is target
func Sentinel(code ErrorCode) error {
	return &APIFPError{Code: code}
}

// CodeOf returns the code of the first APIFPError in err's chain
func CodeOf(err error) (ErrorCode, bool) {
	var e *APIFPError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// CodeOrInternal returns err's code, or InternalError when it carries none
func CodeOrInternal(err error) ErrorCode {
	if c, ok := CodeOf(err); ok {
		return c
	}
	return InternalError
}

// HasCode reports whether err's chain carries an APIFPError with the given code
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	BackendUnavailable: {
		{
			Type:        RunCommand,
			Command:     "apifp backends",
			Safe:        true,
			Description: "List backends available in this build",
		},
	},
	BackendNotFound: {
		{
			Type:        RunCommand,
			Command:     "apifp backends",
			Safe:        true,
			Description: "List registered backends and the inputs they accept",
		},
	},
	SnapshotNotFound: {
		{
			Type:        RunCommand,
			Command:     "apifp snapshot list",
			Safe:        true,
			Description: "List stored snapshots",
		},
	},
	SnapshotCorrupt: {
		{
			Type:        RunCommand,
			Command:     "apifp surface <source> --out <file>",
			Safe:        true,
			Description: "Regenerate the snapshot from its source",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
