package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBackendDefaults(t *testing.T) {
	t.Parallel()

	doc := `
name: local
url: http://localhost:11434
`
	var b Backend
	require.NoError(t, yaml.Unmarshal([]byte(doc), &b))
	require.True(t, b.Enabled)
	require.Equal(t, TierPrimary, b.Tier)
}

func TestBackendExplicitFields(t *testing.T) {
	t.Parallel()

	doc := `
name: spare
url: http://spare:11434
enabled: false
tier: fallback
description: emergency host
`
	var b Backend
	require.NoError(t, yaml.Unmarshal([]byte(doc), &b))
	require.False(t, b.Enabled)
	require.Equal(t, TierFallback, b.Tier)
	require.Equal(t, "emergency host", b.Description)
}

func TestRuleSeverityDefaultsToMedium(t *testing.T) {
	t.Parallel()

	doc := `
id: no-todos
type: forbidden_pattern
pattern: "TODO"
`
	var r Rule
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))
	require.Equal(t, "medium", r.Severity)
}

func TestTimeoutDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	require.Equal(t, 2500*time.Millisecond, cfg.ProbeTimeout())
	require.Equal(t, 60*time.Second, cfg.ScriptTimeout())
	require.Equal(t, 180*time.Second, cfg.LLMTimeout())
	require.Equal(t, 64*1024, cfg.MaxOutputBytes())
}

func TestTimeoutOverrides(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Settings: Settings{ProbeTimeoutMs: 100},
		Scripts:  Scripts{TimeoutMs: 5000, MaxOutputBytes: 512},
		LLM:      LLMCheck{TimeoutMs: 30000},
	}
	require.Equal(t, 100*time.Millisecond, cfg.ProbeTimeout())
	require.Equal(t, 5*time.Second, cfg.ScriptTimeout())
	require.Equal(t, 30*time.Second, cfg.LLMTimeout())
	require.Equal(t, 512, cfg.MaxOutputBytes())
}

func TestEnabledBackendsOrdering(t *testing.T) {
	t.Parallel()

	cfg := &Config{Backends: []Backend{
		{Name: "spare", URL: "http://spare:11434", Enabled: true, Tier: TierFallback},
		{Name: "big72", URL: "http://big72:11434", Enabled: true, Tier: TierPrimary},
		{Name: "off", URL: "http://off:11434", Enabled: false, Tier: TierPrimary},
		{Name: "local", URL: "http://localhost:11434", Enabled: true, Tier: TierPrimary},
	}}

	enabled := cfg.EnabledBackends()
	require.Len(t, enabled, 3)
	// Primaries in configured order, then fallbacks.
	require.Equal(t, "big72", enabled[0].Name)
	require.Equal(t, "local", enabled[1].Name)
	require.Equal(t, "spare", enabled[2].Name)

	require.Len(t, cfg.PrimaryBackends(), 2)
	require.Len(t, cfg.FallbackBackends(), 1)
}
