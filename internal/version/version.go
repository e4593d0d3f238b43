// Package version reports the build of the agnor-examiner tools.
package version

import "fmt"

// Set with -ldflags "-X agnor-examiner/internal/version.Version=..." and
// likewise for Commit and Built.
var (
	Version = "0.1.0"
	Commit  = "unknown"
	Built   = "unknown"
)

// String returns a one-line description for -version output.
func String(tool string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", tool, Version, Commit, Built)
}
