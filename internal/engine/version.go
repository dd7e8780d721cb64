package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/slotform/internal/ir"
)

// SupportedVersion is the dialogue-manager protocol version this executor
// targets. Requests are compatible when major and minor match.
const SupportedVersion = ir.SupportedProtocolVersion

// CheckVersion reports whether version is compatible with
// SupportedVersion and logs a warning when it is not. An empty version
// comes from a dialogue manager too old to report one.
func CheckVersion(logger *slog.Logger, version string) bool {
	if version == "" {
		logger.Warn("request carries no version; it may come from an incompatible dialogue manager",
			"supported", SupportedVersion)
		return false
	}

	got := strings.SplitN(version, ".", 3)
	want := strings.SplitN(SupportedVersion, ".", 3)
	if len(got) < 2 || got[0] != want[0] || got[1] != want[1] {
		logger.Warn("dialogue manager version might not be compatible; use the same major.minor",
			"version", version, "supported", SupportedVersion)
		return false
	}
	return true
}
