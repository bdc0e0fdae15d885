package main

import (
	"flag"
	"testing"

	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagOverrides(t *testing.T) {
	require.NoError(t, flag.Set("maxiter", "25"))
	require.NoError(t, flag.Set("adaptive", "true"))
	require.NoError(t, flag.Set("mode", "linear"))
	t.Cleanup(func() {
		flag.Set("maxiter", "0")
		flag.Set("adaptive", "false")
		flag.Set("mode", "")
	})

	cfg, err := flagOverrides().Apply(analysis.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.MaxNRIters)
	assert.True(t, cfg.AdaptiveStepSize)
	assert.Equal(t, analysis.Linear, cfg.Mode)
}
