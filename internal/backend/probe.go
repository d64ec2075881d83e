package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/softwarewrighter/guardian/internal/config"
)

// ProbeOutcome is the result of one liveness check against one host. An
// unreachable host is an expected outcome, not an error.
type ProbeOutcome struct {
	Backend   string        `json:"backend"`
	URL       string        `json:"url"`
	Tier      config.Tier   `json:"tier"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency"`
	Reason    string        `json:"reason,omitempty"`
}

// Probe issues a side-effect-free liveness request (the tags listing)
// bounded by timeout. Every network-level failure folds into
// Reachable=false with a distinguishing reason.
func (c *Client) Probe(ctx context.Context, b config.Backend, timeout time.Duration) ProbeOutcome {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome := ProbeOutcome{Backend: b.Name, URL: b.URL, Tier: b.Tier}
	start := time.Now()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, apiURL(b, "/api/tags"), nil)
	if err != nil {
		outcome.Reason = err.Error()
		return outcome
	}

	resp, err := c.http.Do(req)
	outcome.Latency = time.Since(start)
	if err != nil {
		outcome.Reason = probeFailureReason(probeCtx, err)
		c.log.WithFields(map[string]any{
			"backend": b.Name,
			"reason":  outcome.Reason,
		}).Debug("probe failed")
		return outcome
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome.Reason = "unexpected status " + resp.Status
		return outcome
	}

	outcome.Reachable = true
	c.log.WithFields(map[string]any{
		"backend":    b.Name,
		"latency_ms": outcome.Latency.Milliseconds(),
	}).Debug("probe succeeded")
	return outcome
}

func probeFailureReason(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}
