// Package engine orchestrates one check run: backend resolution, the
// independent check units, and the fold of their outcomes into a verdict.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/softwarewrighter/guardian/internal/backend"
	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/logger"
	"github.com/softwarewrighter/guardian/internal/model"
	"github.com/softwarewrighter/guardian/internal/policy"
	"github.com/softwarewrighter/guardian/internal/review"
	"github.com/softwarewrighter/guardian/internal/scriptcheck"
)

// Phase identifies where a run currently is.
type Phase string

const (
	// PhaseIdle precedes the first transition.
	PhaseIdle Phase = "idle"
	// PhaseResolving is the backend probe race.
	PhaseResolving Phase = "resolving_backend"
	// PhaseRunning covers the concurrent check units.
	PhaseRunning Phase = "running_checks"
	// PhaseAggregating is the fold into the verdict.
	PhaseAggregating Phase = "aggregating"
	// PhaseDone is terminal.
	PhaseDone Phase = "done"
)

// Update is a progress notification emitted as the run advances. Unit and
// Outcome are set only for per-unit completion events during PhaseRunning.
type Update struct {
	Phase   Phase
	Unit    string
	Outcome *model.UnitOutcome
}

// Coordinator drives a full check run. Units never share mutable state;
// the coordinator is the single writer of the final verdict.
type Coordinator struct {
	cfg      *config.Config
	resolver *backend.Resolver
	runner   *scriptcheck.Runner
	reviewer *review.Reviewer
	log      *logger.Logger
	notify   func(Update)
	notifyMu sync.Mutex
}

// NewCoordinator wires a coordinator from configuration. All units share
// one HTTP client through the resolver and reviewer.
func NewCoordinator(cfg *config.Config, log *logger.Logger) *Coordinator {
	client := backend.NewClient(log)
	return &Coordinator{
		cfg:      cfg,
		resolver: backend.NewResolver(client, log),
		runner:   scriptcheck.NewRunner(log),
		reviewer: review.NewReviewer(client, log),
		log:      log.WithComponent("engine"),
	}
}

// Notify registers a progress callback. Must be set before Run. Unit
// completion events arrive from unit goroutines, but never two at once.
func (c *Coordinator) Notify(fn func(Update)) {
	c.notify = fn
}

func (c *Coordinator) emit(u Update) {
	if c.notify == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notify(u)
}

// Run executes one full orchestration pass and always returns a verdict.
// Individual unit failures become data in the verdict; nothing a unit does
// aborts its siblings.
func (c *Coordinator) Run(ctx context.Context, payload policy.Payload) *model.CheckVerdict {
	start := time.Now()

	// Script-only runs skip the resolving phase entirely.
	var resolved *backend.ResolvedBackend
	if c.cfg.LLM.Enabled {
		c.emit(Update{Phase: PhaseResolving})
		resolved = c.resolveBackend(ctx)
	}

	c.emit(Update{Phase: PhaseRunning})

	commands := c.cfg.Scripts.Commands
	scriptOutcomes := make([]model.UnitOutcome, len(commands))
	var policyOutcome, reviewOutcome *model.UnitOutcome

	var wg sync.WaitGroup
	for i, command := range commands {
		wg.Add(1)
		go func(i int, command string) {
			defer wg.Done()
			scriptOutcomes[i] = c.runScript(ctx, command)
		}(i, command)
	}

	if len(c.cfg.Policy.Rules) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := c.runPolicy(payload)
			policyOutcome = &outcome
		}()
	}

	if c.cfg.LLM.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := c.runReview(ctx, resolved, payload)
			reviewOutcome = &outcome
		}()
	}

	// Join barrier: aggregation never sees partial results.
	wg.Wait()

	c.emit(Update{Phase: PhaseAggregating})

	units := make([]model.UnitOutcome, 0, len(scriptOutcomes)+2)
	units = append(units, scriptOutcomes...)
	if policyOutcome != nil {
		units = append(units, *policyOutcome)
	}
	if reviewOutcome != nil {
		units = append(units, *reviewOutcome)
	}

	verdict := &model.CheckVerdict{
		Units:     units,
		Overall:   fold(units),
		Duration:  time.Since(start),
		Timestamp: time.Now().UTC(),
	}
	if resolved != nil {
		verdict.Backend = resolved.Backend.Name
		verdict.Model = c.cfg.LLM.Model
	}

	c.emit(Update{Phase: PhaseDone})
	c.log.WithFields(map[string]any{
		"overall":  string(verdict.Overall),
		"units":    len(units),
		"duration": verdict.Duration.String(),
	}).Info("check run complete")

	return verdict
}

func (c *Coordinator) resolveBackend(ctx context.Context) *backend.ResolvedBackend {
	if !c.cfg.LLM.Enabled {
		return nil
	}
	resolved := c.resolver.Resolve(ctx, c.cfg.Backends, c.cfg.ProbeTimeout())
	if resolved == nil {
		c.log.Warn("no backend resolved, review unit will be skipped")
	}
	return resolved
}

func (c *Coordinator) runScript(ctx context.Context, command string) model.UnitOutcome {
	result := c.runner.Run(ctx, command, scriptcheck.Options{
		WorkDir:        c.cfg.Scripts.WorkDir,
		Env:            c.cfg.Scripts.Env,
		Timeout:        c.cfg.ScriptTimeout(),
		MaxOutputBytes: c.cfg.MaxOutputBytes(),
	})

	outcome := model.UnitOutcome{
		Kind:     model.UnitScript,
		Name:     command,
		Status:   scriptUnitStatus(result.Status),
		Script:   &result,
		Duration: result.Duration,
	}
	c.emit(Update{Phase: PhaseRunning, Unit: command, Outcome: &outcome})
	return outcome
}

func (c *Coordinator) runPolicy(payload policy.Payload) model.UnitOutcome {
	start := time.Now()
	violations, ruleErrs := policy.Evaluate(payload, c.cfg.Policy.Rules)

	outcome := model.UnitOutcome{
		Kind:       model.UnitPolicy,
		Name:       "policy",
		Status:     policyUnitStatus(violations, ruleErrs),
		Violations: violations,
		Duration:   time.Since(start),
	}
	if len(ruleErrs) > 0 {
		msgs := make([]string, len(ruleErrs))
		for i, err := range ruleErrs {
			msgs[i] = err.Error()
		}
		outcome.Message = strings.Join(msgs, "; ")
	}
	c.emit(Update{Phase: PhaseRunning, Unit: "policy", Outcome: &outcome})
	return outcome
}

func (c *Coordinator) runReview(ctx context.Context, resolved *backend.ResolvedBackend, payload policy.Payload) model.UnitOutcome {
	outcome := c.reviewOutcome(ctx, resolved, payload)
	c.emit(Update{Phase: PhaseRunning, Unit: outcome.Name, Outcome: &outcome})
	return outcome
}

func (c *Coordinator) reviewOutcome(ctx context.Context, resolved *backend.ResolvedBackend, payload policy.Payload) model.UnitOutcome {
	if resolved == nil {
		return model.UnitOutcome{
			Kind:    model.UnitReview,
			Name:    "review",
			Status:  model.UnitSkipped,
			Message: "no backend available",
		}
	}

	start := time.Now()
	reviewCtx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout())
	defer cancel()

	result, err := c.reviewer.Evaluate(reviewCtx, review.Request{
		Backend:   resolved.Backend,
		Model:     c.cfg.LLM.Model,
		RulesText: c.cfg.LLM.Rules,
		Task:      c.cfg.LLM.Task,
		Payload:   payload.Diff,
	})
	if err != nil {
		return model.UnitOutcome{
			Kind:     model.UnitReview,
			Name:     "review",
			Status:   model.UnitErrored,
			Message:  err.Error(),
			Duration: time.Since(start),
		}
	}

	return model.UnitOutcome{
		Kind:     model.UnitReview,
		Name:     "review",
		Status:   reviewUnitStatus(result),
		Review:   result,
		Duration: time.Since(start),
	}
}

func scriptUnitStatus(status model.ScriptStatus) model.UnitStatus {
	switch status {
	case model.ScriptPassed:
		return model.UnitPassed
	case model.ScriptFailed:
		return model.UnitFailed
	case model.ScriptTimedOut:
		return model.UnitTimedOut
	default:
		return model.UnitErrored
	}
}

func policyUnitStatus(violations []model.PolicyViolation, ruleErrs []error) model.UnitStatus {
	for _, v := range violations {
		if v.Severity == model.SeverityHigh {
			return model.UnitFailed
		}
	}
	if len(violations) > 0 || len(ruleErrs) > 0 {
		return model.UnitWarned
	}
	return model.UnitPassed
}

func reviewUnitStatus(result *model.ReviewResult) model.UnitStatus {
	if !result.OKToProceed {
		if result.Severity == model.SeverityHigh {
			return model.UnitFailed
		}
		return model.UnitWarned
	}
	if result.FailOpen || len(result.Reasons) > 0 {
		return model.UnitWarned
	}
	return model.UnitPassed
}

// fold computes the overall status from the collected outcomes. Blocked
// always wins over Warning; warning detail stays in the unit list either
// way. Skipped units contribute nothing.
func fold(units []model.UnitOutcome) model.OverallStatus {
	blocked := false
	warning := false

	for _, u := range units {
		switch u.Status {
		case model.UnitFailed:
			blocked = true
		case model.UnitErrored:
			if u.Kind == model.UnitScript {
				blocked = true
			} else {
				warning = true
			}
		case model.UnitWarned, model.UnitTimedOut:
			warning = true
		}
		if u.Kind == model.UnitPolicy {
			for _, v := range u.Violations {
				if v.Severity == model.SeverityHigh {
					blocked = true
				}
			}
		}
	}

	if blocked {
		return model.OverallBlocked
	}
	if warning {
		return model.OverallWarning
	}
	return model.OverallPassed
}
