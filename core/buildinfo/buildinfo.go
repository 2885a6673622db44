package buildinfo

import "fmt"

// These variables are intended to be set via -ldflags at build time:
//
//	-X 'github.com/m3rciful/superbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/superbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/superbot/core/buildinfo.Date=2025-08-30T12:00:00Z'
//
// Default values are useful for local dev.
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders a one-line build summary for the version command.
func String() string {
	if Date == "" {
		return fmt.Sprintf("superbot %s (%s)", Version, Commit)
	}
	return fmt.Sprintf("superbot %s (%s, built %s)", Version, Commit, Date)
}

// UserAgent is sent on outbound HTTP calls made by the adapters.
func UserAgent() string {
	return "superbot/" + Version
}
