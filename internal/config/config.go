// Package config reads environment defaults for the slotform CLI.
// Command-line flags always win; these values only seed flag defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Environment variables consulted by Load.
const (
	EnvDatabase = "SLOTFORM_DB"
	EnvFormsDir = "SLOTFORM_FORMS_DIR"
	EnvLogLevel = "SLOTFORM_LOG_LEVEL"
)

// Config holds CLI defaults.
type Config struct {
	// Database is the turn journal path. Empty means no journal.
	Database string
	// FormsDir is the CUE package holding form definitions.
	FormsDir string
	// LogLevel is the slog level used when --verbose is not set.
	LogLevel slog.Level
}

// Load reads the environment. An unparseable log level is an error so
// a typo does not silently hide warnings.
func Load() (Config, error) {
	cfg := Config{
		Database: getEnv(EnvDatabase, ""),
		FormsDir: getEnv(EnvFormsDir, "forms"),
		LogLevel: slog.LevelWarn,
	}

	if raw := getEnv(EnvLogLevel, ""); raw != "" {
		level, err := ParseLevel(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	return v
}
