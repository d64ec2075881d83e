package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BackendUnreachableError indicates every configured backend tier was
// exhausted without a successful probe. Not fatal by itself: callers decide
// whether the run proceeds without an inference backend.
type BackendUnreachableError struct {
	Probed int
}

// NewBackendUnreachableError constructs a BackendUnreachableError.
func NewBackendUnreachableError(probed int) error {
	return &BackendUnreachableError{Probed: probed}
}

func (e *BackendUnreachableError) Error() string {
	if e == nil {
		return ""
	}
	if e.Probed == 1 {
		return "no backend available: 1 host probed, none reachable"
	}
	return fmt.Sprintf("no backend available: %d hosts probed, none reachable", e.Probed)
}

// ScriptExecutionError indicates a check command could not be launched at
// all, as opposed to exiting non-zero. It is recorded on the unit result and
// never crosses unit boundaries.
type ScriptExecutionError struct {
	Command string
	Err     error
}

// NewScriptExecutionError constructs a ScriptExecutionError.
func NewScriptExecutionError(command string, err error) error {
	return &ScriptExecutionError{Command: command, Err: err}
}

func (e *ScriptExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("script execution error: %s: %v", e.Command, e.Err)
}

// Unwrap exposes the root error.
func (e *ScriptExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PolicyRuleError marks a malformed policy rule definition. It is surfaced
// once; evaluation of the remaining rules continues.
type PolicyRuleError struct {
	RuleID  string
	Message string
	Err     error
}

// NewPolicyRuleError constructs a PolicyRuleError for the given rule.
func NewPolicyRuleError(ruleID, message string, err error) error {
	return &PolicyRuleError{RuleID: ruleID, Message: message, Err: err}
}

func (e *PolicyRuleError) Error() string {
	if e == nil {
		return ""
	}
	if e.RuleID != "" {
		return fmt.Sprintf("policy rule error [%s]: %s", e.RuleID, e.Message)
	}
	return fmt.Sprintf("policy rule error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PolicyRuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ResponseParseError indicates the reviewer exhausted its retry budget
// without a parseable reply. The coordinator converts it into the fail-open
// result; it never aborts a run.
type ResponseParseError struct {
	Backend string
	Err     error
}

// NewResponseParseError constructs a ResponseParseError.
func NewResponseParseError(backend string, err error) error {
	return &ResponseParseError{Backend: backend, Err: err}
}

func (e *ResponseParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unparseable response from %s: %v", e.Backend, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ResponseParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TransportError indicates a network failure talking to a backend that was
// already resolved as reachable. Reported as an errored unit, distinct from
// a parse failure.
type TransportError struct {
	Backend string
	Err     error
}

// NewTransportError constructs a TransportError.
func NewTransportError(backend string, err error) error {
	return &TransportError{Backend: backend, Err: err}
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("transport error talking to %s: %v", e.Backend, e.Err)
}

// Unwrap exposes the root error.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
