package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetBeforeInit(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	Sync()
}

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	tests := []struct {
		env     string
		verbose bool
		debug   bool
		info    bool
	}{
		{"production", false, false, true},
		{"production", true, true, true},
		{"development", false, false, false},
		{"development", true, true, true},
	}
	for _, tt := range tests {
		require.NoError(t, Init(tt.env, tt.verbose))
		assert.Equal(t, tt.debug, Get().Core().Enabled(zapcore.DebugLevel), "%s verbose=%v", tt.env, tt.verbose)
		assert.Equal(t, tt.info, Get().Core().Enabled(zapcore.InfoLevel), "%s verbose=%v", tt.env, tt.verbose)
		assert.True(t, Get().Core().Enabled(zapcore.WarnLevel))
	}
}
