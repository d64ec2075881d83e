package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

const sampleConfig = `
version: "1.0"
name: demo
settings:
  probe_timeout_ms: 2500
backends:
  - name: big72
    url: http://big72:11434
    description: main server
  - name: local
    url: http://localhost:11434
    tier: fallback
llm:
  enabled: true
  model: qwen2.5-coder:7b
  rules: |
    No TODO markers in committed code.
scripts:
  commands:
    - make lint
  timeout_ms: 30000
policy:
  rules:
    - id: no-todos
      type: forbidden_pattern
      pattern: "TODO"
      severity: medium
`

func TestParseConfigFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.Name)
	require.Len(t, cfg.Backends, 2)
	require.True(t, cfg.LLM.Enabled)
	require.Equal(t, "qwen2.5-coder:7b", cfg.LLM.Model)
	require.Len(t, cfg.Scripts.Commands, 1)
	require.Len(t, cfg.Policy.Rules, 1)
}

func TestParseConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(filepath.Join(t.TempDir(), "nope.yaml"))

	var parseErr *guardianerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestParseBytesRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := ParseBytes([]byte("version: [unclosed"))

	var parseErr *guardianerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestParseBytesValidates(t *testing.T) {
	t.Parallel()

	// llm enabled with no backends is a supplier error.
	doc := `
version: "1.0"
llm:
  enabled: true
`
	_, err := ParseBytes([]byte(doc))

	var validationErr *guardianerrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
}
