// Package version exposes the build metadata shown in the About dialog and
// the startup log line.
package version

// Overridden at build time via -ldflags "-X hmi-config/internal/version.Version=..."
var (
	// Version is the release number of this build.
	Version = "0.1.0"

	// BuildTime is when the binary was produced, UTC.
	BuildTime = "unknown"

	// GitCommit is the revision the binary was built from.
	GitCommit = "unknown"
)
