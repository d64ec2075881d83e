package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeReachableHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testLogger(t))
	outcome := client.Probe(context.Background(), testBackend("up", srv.URL), time.Second)

	require.True(t, outcome.Reachable)
	require.Equal(t, "up", outcome.Backend)
	require.Empty(t, outcome.Reason)
	require.Greater(t, outcome.Latency, time.Duration(0))
}

func TestProbeConnectionRefused(t *testing.T) {
	t.Parallel()

	client := NewClient(testLogger(t))
	outcome := client.Probe(context.Background(), testBackend("down", "http://127.0.0.1:1"), time.Second)

	require.False(t, outcome.Reachable)
	require.NotEmpty(t, outcome.Reason)
}

func TestProbeTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(testLogger(t))
	start := time.Now()
	outcome := client.Probe(context.Background(), testBackend("slow", srv.URL), 50*time.Millisecond)

	require.False(t, outcome.Reachable)
	require.Equal(t, "timeout", outcome.Reason)
	// The deadline is honored, not just eventually noticed.
	require.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestProbeNonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testLogger(t))
	outcome := client.Probe(context.Background(), testBackend("broken", srv.URL), time.Second)

	require.False(t, outcome.Reachable)
	require.Contains(t, outcome.Reason, "500")
}
