package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvDatabase, "")
	t.Setenv(EnvFormsDir, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Database)
	assert.Equal(t, "forms", cfg.FormsDir)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvDatabase, "/tmp/turns.db")
	t.Setenv(EnvFormsDir, "./dialogue/forms")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/turns.db", cfg.Database)
	assert.Equal(t, "./dialogue/forms", cfg.FormsDir)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "chatty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvLogLevel)
	assert.Contains(t, err.Error(), "chatty")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
