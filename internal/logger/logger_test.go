package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_IsUsableBeforeInit(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)
	l.Log.Info("dropped")
}

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		wantErr bool
	}{
		{level: "debug", enabled: zapcore.DebugLevel},
		{level: "Info", enabled: zapcore.InfoLevel},
		{level: "WARN", enabled: zapcore.WarnLevel},
		{level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New()
			err := l.Init(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Log.Core().Enabled(tt.enabled))
			assert.False(t, l.Log.Core().Enabled(tt.enabled-1))
		})
	}
}

func TestInit_Development(t *testing.T) {
	l := New(Development(true))
	require.NoError(t, l.Init("info"))
	assert.False(t, l.Log.Core().Enabled(zapcore.DebugLevel))
}
