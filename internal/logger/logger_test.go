package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{"Debug level", "DEBUG", zapcore.DebugLevel},
		{"Info level", "INFO", zapcore.InfoLevel},
		{"Warn level", "WARN", zapcore.WarnLevel},
		{"Error level", "ERROR", zapcore.ErrorLevel},
		{"Empty defaults to Info", "", zapcore.InfoLevel},
		{"Invalid defaults to Info", "INVALID", zapcore.InfoLevel},
		{"Case insensitive", "debug", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.level))
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New("warn")
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Desugar().Core().Enabled(zapcore.ErrorLevel))
}
