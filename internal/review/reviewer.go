// Package review runs the semantic check: one structured evaluation request
// to the resolved backend, a strict parse of the constrained JSON reply, and
// a bounded retry-then-fail-open contract for malformed output.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/softwarewrighter/guardian/internal/backend"
	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/logger"
	"github.com/softwarewrighter/guardian/internal/model"
	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

// Request carries everything needed for one review call.
type Request struct {
	Backend   config.Backend
	Model     string
	RulesText string
	Task      string
	Payload   string
}

// Reviewer sends evaluation requests and enforces the parse contract.
type Reviewer struct {
	client *backend.Client
	log    *logger.Logger
}

// NewReviewer creates a reviewer on top of the shared backend client.
func NewReviewer(client *backend.Client, log *logger.Logger) *Reviewer {
	return &Reviewer{client: client, log: log.WithComponent("review")}
}

// Evaluate sends the review prompt and parses the reply. A malformed reply
// triggers exactly one retry; if the retry is also malformed the result
// fails open: ok_to_proceed=true at low severity with the parse failure
// recorded as a reason and the FailOpen marker set. Transport failures are
// returned as errors rather than folded into the fail-open path.
func (r *Reviewer) Evaluate(ctx context.Context, req Request) (*model.ReviewResult, error) {
	prompt := buildPrompt(req)

	raw, err := r.complete(ctx, req, prompt)
	if err != nil {
		return nil, err
	}

	result, parseErr := parseResult(raw)
	if parseErr == nil {
		return result, nil
	}

	r.log.WithFields(map[string]any{
		"backend": req.Backend.Name,
		"error":   parseErr.Error(),
	}).Warn("review reply unparseable, retrying once")

	raw2, err := r.complete(ctx, req, buildRetryPrompt(prompt, raw, parseErr))
	if err != nil {
		return nil, err
	}

	result, parseErr2 := parseResult(raw2)
	if parseErr2 == nil {
		return result, nil
	}

	unparseable := guardianerrors.NewResponseParseError(req.Backend.Name, parseErr2)
	r.log.Warn("retry reply also unparseable, failing open")

	return failOpenResult(unparseable), nil
}

func (r *Reviewer) complete(ctx context.Context, req Request, prompt string) (string, error) {
	resp, err := r.client.Generate(ctx, req.Backend, req.Model, prompt)
	if err != nil {
		var transportErr *guardianerrors.TransportError
		if errors.As(err, &transportErr) {
			return "", err
		}
		return "", guardianerrors.NewTransportError(req.Backend.Name, err)
	}
	return resp.Response, nil
}

// failOpenResult synthesizes the safe default for an unparseable reply. The
// FailOpen marker keeps the malfunction visible in the report instead of
// turning it into a silent pass.
func failOpenResult(cause error) *model.ReviewResult {
	return &model.ReviewResult{
		OKToProceed: true,
		Severity:    model.SeverityLow,
		Reasons: []string{
			fmt.Sprintf("review response could not be parsed after retry: %v", cause),
		},
		FailOpen: true,
	}
}
