// Package version carries the build identity stamped into the binary.
package version

import "fmt"

// Service is the name the daemon reports in logs and version output.
const Service = "costwised"

var (
	// Version is the semantic version, overridden at build time via
	// -ldflags "-X".
	Version = "0.1.0"
	// Commit is the git commit the binary was built from.
	Commit = "dev"
	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)

// Full renders the complete build identity.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}
