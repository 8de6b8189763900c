package version

import "fmt"

// These are set at build time via ldflags
var (
	// Version is the release tag
	Version = "dev"
	// Commit is the git commit hash
	Commit = "unknown"
)

// GetShortCommit returns first 8 chars of commit hash
func GetShortCommit() string {
	if len(Commit) > 8 {
		return Commit[:8]
	}
	return Commit
}

// String returns the version with its short commit, e.g. "v0.2.0 (1a2b3c4d)"
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GetShortCommit())
}
