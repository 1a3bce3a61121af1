// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"chatty", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"", "development", "production"} {
		logger, err := New(types.LogConfig{Mode: mode, Level: "warn"})
		require.NoError(t, err, mode)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel), mode)
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel), mode)
	}

	_, err := New(types.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
