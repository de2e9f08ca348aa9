package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSugarBeforeInit(t *testing.T) {
	Logger = nil
	assert.NotPanics(t, func() {
		Sugar().Infow("not initialised yet", "key", "value")
	})
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		level string
		flags Flags
		want  zerolog.Level
	}{
		{"prod defaults to info", "prod", "", Flags{}, zerolog.InfoLevel},
		{"dev enables trace", "dev", "", Flags{}, zerolog.TraceLevel},
		{"LOG_LEVEL overrides environment", "prod", "warn", Flags{}, zerolog.WarnLevel},
		{"invalid LOG_LEVEL is ignored", "prod", "loud", Flags{}, zerolog.InfoLevel},
		{"debug flag wins", "prod", "error", Flags{Debug: true}, zerolog.DebugLevel},
		{"trace flag", "prod", "", Flags{Trace: true}, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("LOG_LEVEL", tt.level)

			Init(tt.flags)
			t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

			assert.Equal(t, tt.want, zerolog.GlobalLevel())
			assert.NotNil(t, Logger)
		})
	}
}

func TestZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, zapLevel(zerolog.TraceLevel))
	assert.Equal(t, zapcore.InfoLevel, zapLevel(zerolog.InfoLevel))
	assert.Equal(t, zapcore.WarnLevel, zapLevel(zerolog.WarnLevel))
	assert.Equal(t, zapcore.ErrorLevel, zapLevel(zerolog.FatalLevel))
}
