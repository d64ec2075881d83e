package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorFormatting(t *testing.T) {
	t.Parallel()

	withLine := NewParseError("guardian.yaml", 12, fmt.Errorf("bad indent"))
	require.Equal(t, "parse error: guardian.yaml:12: bad indent", withLine.Error())

	withoutLine := NewParseError("guardian.yaml", 0, fmt.Errorf("unexpected end"))
	require.Equal(t, "parse error: guardian.yaml: unexpected end", withoutLine.Error())
}

func TestValidationErrorFormatting(t *testing.T) {
	t.Parallel()

	err := NewValidationError("backends[0].url", "url is required", nil)
	require.Equal(t, "validation error: backends[0].url: url is required", err.Error())

	bare := NewValidationError("", "configuration is nil", nil)
	require.Equal(t, "validation error: configuration is nil", bare.Error())
}

func TestBackendUnreachableErrorMessage(t *testing.T) {
	t.Parallel()

	one := NewBackendUnreachableError(1)
	require.Equal(t, "no backend available: 1 host probed, none reachable", one.Error())

	many := NewBackendUnreachableError(3)
	require.Equal(t, "no backend available: 3 hosts probed, none reachable", many.Error())
}

func TestUnwrapChains(t *testing.T) {
	t.Parallel()

	root := fmt.Errorf("connection refused")

	tests := []struct {
		name string
		err  error
	}{
		{"script execution", NewScriptExecutionError("make lint", root)},
		{"policy rule", NewPolicyRuleError("no-todos", "bad pattern", root)},
		{"response parse", NewResponseParseError("local", root)},
		{"transport", NewTransportError("local", root)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.err, root)
		})
	}
}

func TestTypedErrorsMatchWithErrorsAs(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("unit failed: %w", NewTransportError("big72", fmt.Errorf("timeout")))

	var transportErr *TransportError
	require.True(t, errors.As(wrapped, &transportErr))
	require.Equal(t, "big72", transportErr.Backend)

	var parseErr *ResponseParseError
	require.False(t, errors.As(wrapped, &parseErr))
}
