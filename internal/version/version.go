// Package version carries build information set with -ldflags, for example
//
//	go build -ldflags "-X github.com/banshee-data/trackml.viz/internal/version.Version=0.3.1"
package version

import "fmt"

// Build information; the defaults identify a local development build.
var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String formats the build information for display.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
