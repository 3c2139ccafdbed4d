package version

import "fmt"

// Build metadata, overridden at link time with -ldflags "-X ...".
var (
	// Version is the release tag of the binary.
	Version = "1.0.0"
	// Commit is the short hash of the source revision, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC timestamp of the build, "unknown" for local builds.
	BuildTime = "unknown"
)

// Short returns the bare release tag.
func Short() string {
	return Version
}

// Full renders the release tag together with the commit hash and build timestamp.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
