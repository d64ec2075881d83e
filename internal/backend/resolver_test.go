package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softwarewrighter/guardian/internal/config"
)

func okServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	log := testLogger(t)
	return NewResolver(NewClient(log), log)
}

func TestResolvePrefersResponsivePrimary(t *testing.T) {
	t.Parallel()

	srv := okServer(t, 20*time.Millisecond)

	backends := []config.Backend{
		{Name: "off1", URL: "http://127.0.0.1:1", Enabled: false, Tier: config.TierPrimary},
		{Name: "off2", URL: "http://127.0.0.1:1", Enabled: false, Tier: config.TierPrimary},
		{Name: "live", URL: srv.URL, Enabled: true, Tier: config.TierPrimary},
	}

	resolved := newTestResolver(t).Resolve(context.Background(), backends, time.Second)
	require.NotNil(t, resolved)
	require.Equal(t, "live", resolved.Backend.Name)
	require.Equal(t, config.TierPrimary, resolved.Tier)
}

func TestResolveNeverReturnsFallbackWhenPrimaryResponds(t *testing.T) {
	t.Parallel()

	primary := okServer(t, 50*time.Millisecond)
	fallback := okServer(t, 0)

	backends := []config.Backend{
		{Name: "primary", URL: primary.URL, Enabled: true, Tier: config.TierPrimary},
		{Name: "fast-fallback", URL: fallback.URL, Enabled: true, Tier: config.TierFallback},
	}

	resolved := newTestResolver(t).Resolve(context.Background(), backends, time.Second)
	require.NotNil(t, resolved)
	require.Equal(t, "primary", resolved.Backend.Name)
}

func TestResolveFallsThroughToFallbackTier(t *testing.T) {
	t.Parallel()

	fallback := okServer(t, 0)

	backends := []config.Backend{
		{Name: "dead", URL: "http://127.0.0.1:1", Enabled: true, Tier: config.TierPrimary},
		{Name: "spare", URL: fallback.URL, Enabled: true, Tier: config.TierFallback},
	}

	resolved := newTestResolver(t).Resolve(context.Background(), backends, time.Second)
	require.NotNil(t, resolved)
	require.Equal(t, "spare", resolved.Backend.Name)
	require.Equal(t, config.TierFallback, resolved.Tier)
}

func TestResolveReturnsNilWhenAllTiersExhausted(t *testing.T) {
	t.Parallel()

	backends := []config.Backend{
		{Name: "p", URL: "http://127.0.0.1:1", Enabled: true, Tier: config.TierPrimary},
		{Name: "f", URL: "http://127.0.0.1:1", Enabled: true, Tier: config.TierFallback},
	}

	resolved := newTestResolver(t).Resolve(context.Background(), backends, 200*time.Millisecond)
	require.Nil(t, resolved)
}

func TestResolveShortCircuitsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	fast := okServer(t, 0)
	slow := okServer(t, 2*time.Second)

	backends := []config.Backend{
		{Name: "slow", URL: slow.URL, Enabled: true, Tier: config.TierPrimary},
		{Name: "fast", URL: fast.URL, Enabled: true, Tier: config.TierPrimary},
	}

	start := time.Now()
	resolved := newTestResolver(t).Resolve(context.Background(), backends, 5*time.Second)
	require.NotNil(t, resolved)
	require.Equal(t, "fast", resolved.Backend.Name)
	// The slow probe is abandoned, not awaited.
	require.Less(t, time.Since(start), time.Second)
}

func TestResolveTieBreaksOnConfiguredOrder(t *testing.T) {
	t.Parallel()

	first := okServer(t, 0)
	second := okServer(t, 0)

	backends := []config.Backend{
		{Name: "first", URL: first.URL, Enabled: true, Tier: config.TierPrimary},
		{Name: "second", URL: second.URL, Enabled: true, Tier: config.TierPrimary},
	}

	// Both hosts answer immediately; the settle window must pick the
	// earliest configured one regardless of which probe lands first.
	for i := 0; i < 10; i++ {
		resolved := newTestResolver(t).Resolve(context.Background(), backends, time.Second)
		require.NotNil(t, resolved)
		require.Equal(t, "first", resolved.Backend.Name)
	}
}

func TestResolveSkipsDisabledBackends(t *testing.T) {
	t.Parallel()

	srv := okServer(t, 0)

	backends := []config.Backend{
		{Name: "disabled", URL: srv.URL, Enabled: false, Tier: config.TierPrimary},
	}

	resolved := newTestResolver(t).Resolve(context.Background(), backends, 200*time.Millisecond)
	require.Nil(t, resolved)
}

func TestProbeAllReturnsEveryOutcomeInConfiguredOrder(t *testing.T) {
	t.Parallel()

	up := okServer(t, 0)

	backends := []config.Backend{
		{Name: "alpha", URL: up.URL, Enabled: true, Tier: config.TierPrimary},
		{Name: "beta", URL: "http://127.0.0.1:1", Enabled: true, Tier: config.TierFallback},
		{Name: "ignored", URL: up.URL, Enabled: false, Tier: config.TierPrimary},
		{Name: "gamma", URL: up.URL, Enabled: true, Tier: config.TierPrimary},
	}

	outcomes := newTestResolver(t).ProbeAll(context.Background(), backends, time.Second)
	require.Len(t, outcomes, 3)
	require.Equal(t, "alpha", outcomes[0].Backend)
	require.True(t, outcomes[0].Reachable)
	require.Equal(t, "beta", outcomes[1].Backend)
	require.False(t, outcomes[1].Reachable)
	require.Equal(t, "gamma", outcomes[2].Backend)
	require.True(t, outcomes[2].Reachable)
}
