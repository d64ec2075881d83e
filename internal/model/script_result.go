package model

import "time"

// ScriptStatus describes how a configured check command finished.
type ScriptStatus string

const (
	// ScriptPassed indicates the command exited zero.
	ScriptPassed ScriptStatus = "passed"
	// ScriptFailed indicates the command exited non-zero.
	ScriptFailed ScriptStatus = "failed"
	// ScriptTimedOut indicates the command was killed at its deadline.
	ScriptTimedOut ScriptStatus = "timed_out"
	// ScriptErrored indicates the command could not be launched at all.
	ScriptErrored ScriptStatus = "errored"
)

// ScriptCheckResult captures the outcome of one check command. Script
// failures are data, not control flow: a bad check never aborts its siblings.
type ScriptCheckResult struct {
	Command  string        `json:"command"`
	Status   ScriptStatus  `json:"status"`
	ExitCode *int          `json:"exit_code,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}
