package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/outrank/internal/scoring"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prosa-c", cfg.Method)
	assert.Equal(t, 0.3, cfg.Sustainability)
	assert.False(t, cfg.StrictThresholds)
	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, 4*1024*1024, cfg.BodyLimit)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryWait)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("OUTRANK_METHOD", "promethee-ii")
	t.Setenv("OUTRANK_SUSTAINABILITY", "0.5")
	t.Setenv("OUTRANK_STRICT_THRESHOLDS", "true")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("CLIENT_TIMEOUT", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "promethee-ii", cfg.Method)
	assert.Equal(t, 0.5, cfg.Sustainability)
	assert.True(t, cfg.StrictThresholds)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ClientTimeout)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestEngineOptions(t *testing.T) {
	cfg := ScoringEnvConfig{
		Method:           "promethee-ii",
		Sustainability:   0.4,
		StrictThresholds: true,
		WeightTolerance:  0.001,
	}

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)

	e := scoring.NewEngine(opts...)
	assert.Equal(t, scoring.MethodPrometheeII, e.Method)
	assert.Equal(t, 0.4, e.DefaultSustainability)
	assert.True(t, e.StrictThresholds)
	assert.Equal(t, 0.001, e.WeightTolerance)

	_, err = ScoringEnvConfig{Method: "electre"}.EngineOptions()
	assert.ErrorIs(t, err, scoring.ErrUnknownMethod)

	_, err = ScoringEnvConfig{Method: "prosa-c", Sustainability: -1}.EngineOptions()
	assert.ErrorIs(t, err, scoring.ErrParameterRange)
}
