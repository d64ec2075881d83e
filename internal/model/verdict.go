package model

import "time"

// UnitKind identifies the type of an independent check unit.
type UnitKind string

const (
	// UnitScript is one external check command.
	UnitScript UnitKind = "script"
	// UnitPolicy is the static policy pass.
	UnitPolicy UnitKind = "policy"
	// UnitReview is the LLM semantic review.
	UnitReview UnitKind = "review"
)

// UnitStatus describes how a check unit concluded. A skipped unit is not
// equivalent to a passed one and stays visible in the outcome list.
type UnitStatus string

const (
	// UnitPassed indicates the unit found nothing wrong.
	UnitPassed UnitStatus = "passed"
	// UnitFailed indicates the unit found a blocking condition.
	UnitFailed UnitStatus = "failed"
	// UnitWarned indicates the unit produced non-blocking findings.
	UnitWarned UnitStatus = "warned"
	// UnitTimedOut indicates the unit was cut off at its deadline.
	UnitTimedOut UnitStatus = "timed_out"
	// UnitErrored indicates the unit itself malfunctioned.
	UnitErrored UnitStatus = "errored"
	// UnitSkipped indicates the unit never ran (e.g. no backend resolved).
	UnitSkipped UnitStatus = "skipped"
)

// UnitOutcome is the typed result of one check unit. Exactly one of Script,
// Violations, or Review is populated according to Kind.
type UnitOutcome struct {
	Kind       UnitKind          `json:"kind"`
	Name       string            `json:"name"`
	Status     UnitStatus        `json:"status"`
	Script     *ScriptCheckResult `json:"script,omitempty"`
	Violations []PolicyViolation `json:"violations,omitempty"`
	Review     *ReviewResult     `json:"review,omitempty"`
	Message    string            `json:"message,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// OverallStatus is the aggregate pass/warn/block decision for a run.
type OverallStatus string

const (
	// OverallPassed means every unit came back clean.
	OverallPassed OverallStatus = "passed"
	// OverallWarning means non-blocking findings exist.
	OverallWarning OverallStatus = "warning"
	// OverallBlocked means at least one blocking condition was found.
	OverallBlocked OverallStatus = "blocked"
)

// CheckVerdict aggregates every unit outcome from one orchestration run.
// It is immutable after the coordinator constructs it and is the engine's
// sole output; rendering and persistence happen elsewhere.
type CheckVerdict struct {
	Units     []UnitOutcome `json:"units"`
	Overall   OverallStatus `json:"overall"`
	Backend   string        `json:"backend,omitempty"`
	Model     string        `json:"model,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Blocking reports whether the verdict should stop the change.
func (v *CheckVerdict) Blocking() bool {
	return v != nil && v.Overall == OverallBlocked
}

// ExitCode maps the verdict to a process exit code for scripting use.
func (v *CheckVerdict) ExitCode() int {
	if v.Blocking() {
		return 1
	}
	return 0
}
