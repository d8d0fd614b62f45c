package gate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicy_Allow(t *testing.T) {
	p, err := NewPolicy(`report.driftScore < 0.05`)
	require.NoError(t, err)

	ok, err := p.Allow(&Report{DriftScore: 0.02})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Allow(&Report{DriftScore: 0.5})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPolicy_ReadsViolationFields(t *testing.T) {
	p, err := NewPolicy(`!has(report.violations) || size(report.violations) == 0`)
	require.NoError(t, err)

	ok, err := p.Allow(&Report{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Allow(&Report{Violations: []Violation{{Code: KindHashMismatch, Message: "x"}}})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewPolicy_CompileError(t *testing.T) {
	_, err := NewPolicy(`report.driftScore <`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "compile policy")
}

func TestPolicy_NonBoolResult(t *testing.T) {
	p, err := NewPolicy(`report.driftScore`)
	require.NoError(t, err)

	_, err = p.Allow(&Report{DriftScore: 0.3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "want bool")
}
