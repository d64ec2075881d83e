package backend

import (
	"context"
	"sync"
	"time"

	"github.com/softwarewrighter/guardian/internal/config"
	"github.com/softwarewrighter/guardian/internal/logger"
)

// ResolvedBackend is a backend chosen for the run, plus the tier it was
// found in. At most one exists per orchestration run.
type ResolvedBackend struct {
	Backend config.Backend
	Tier    config.Tier
}

// Resolver picks one reachable backend by racing probes within a tier and
// falling through tiers in priority order.
type Resolver struct {
	client *Client
	log    *logger.Logger
}

// NewResolver creates a resolver on top of the shared client.
func NewResolver(client *Client, log *logger.Logger) *Resolver {
	return &Resolver{client: client, log: log.WithComponent("resolver")}
}

// Resolve races probes across all enabled primary backends, then across the
// fallbacks with a fresh timeout budget. A nil result means every tier was
// exhausted; that is a valid state, not an error.
func (r *Resolver) Resolve(ctx context.Context, backends []config.Backend, timeout time.Duration) *ResolvedBackend {
	tiers := []struct {
		tier  config.Tier
		hosts []config.Backend
	}{
		{config.TierPrimary, enabledInTier(backends, config.TierPrimary)},
		{config.TierFallback, enabledInTier(backends, config.TierFallback)},
	}

	for _, t := range tiers {
		if len(t.hosts) == 0 {
			continue
		}
		if winner := r.raceTier(ctx, t.hosts, timeout); winner != nil {
			r.log.WithFields(map[string]any{
				"backend": winner.Name,
				"tier":    t.tier,
			}).Info("backend resolved")
			return &ResolvedBackend{Backend: *winner, Tier: t.tier}
		}
		r.log.WithFields(map[string]any{"tier": t.tier}).Debug("tier exhausted")
	}

	return nil
}

// settleGrace bounds how long raceTier keeps collecting successes after the
// first one, so near-simultaneous winners settle on the earliest configured
// host instead of on goroutine scheduling.
const settleGrace = 10 * time.Millisecond

// raceTier probes every host in the tier concurrently with a shared budget
// and returns the winning host. The first success decides the race, but a
// short settle window lets other successes already in flight land, and ties
// break toward the lowest configured index. Abandoned probes are never
// awaited.
func (r *Resolver) raceTier(ctx context.Context, hosts []config.Backend, timeout time.Duration) *config.Backend {
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	successes := make(chan int, len(hosts))
	exhausted := make(chan struct{})

	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host config.Backend) {
			defer wg.Done()
			outcome := r.client.Probe(raceCtx, host, timeout)
			if outcome.Reachable {
				successes <- i
			}
		}(i, host)
	}

	go func() {
		wg.Wait()
		close(exhausted)
	}()

	select {
	case i := <-successes:
		return &hosts[settleWinner(i, successes)]
	case <-exhausted:
		// Every probe finished; re-check in case a success landed between
		// the last probe and the close.
		select {
		case i := <-successes:
			return &hosts[settleWinner(i, successes)]
		default:
			return nil
		}
	case <-raceCtx.Done():
		select {
		case i := <-successes:
			return &hosts[settleWinner(i, successes)]
		default:
			return nil
		}
	}
}

// settleWinner drains successes for the settle window and returns the lowest
// index seen, starting from the first winner.
func settleWinner(first int, successes <-chan int) int {
	best := first
	grace := time.NewTimer(settleGrace)
	defer grace.Stop()
	for {
		select {
		case i := <-successes:
			if i < best {
				best = i
			}
		case <-grace.C:
			return best
		}
	}
}

// ProbeAll runs every enabled backend's probe concurrently and waits for all
// of them, returning the full outcome set in configured order. Diagnostic
// use only; resolution never calls this.
func (r *Resolver) ProbeAll(ctx context.Context, backends []config.Backend, timeout time.Duration) []ProbeOutcome {
	var enabled []config.Backend
	for _, b := range backends {
		if b.Enabled {
			enabled = append(enabled, b)
		}
	}

	outcomes := make([]ProbeOutcome, len(enabled))
	var wg sync.WaitGroup
	for i, b := range enabled {
		wg.Add(1)
		go func(i int, b config.Backend) {
			defer wg.Done()
			outcomes[i] = r.client.Probe(ctx, b, timeout)
		}(i, b)
	}
	wg.Wait()

	return outcomes
}

func enabledInTier(backends []config.Backend, tier config.Tier) []config.Backend {
	var out []config.Backend
	for _, b := range backends {
		if b.Enabled && b.Tier == tier {
			out = append(out, b)
		}
	}
	return out
}
