package build

import "fmt"

// Semantic version components for the current release.
const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0

	// appPreRelease is appended to the version string when non-empty.
	appPreRelease = "beta"
)

// Commit is the git commit hash, set via linker flags at build time.
var Commit string

// Version returns the application version as a properly formed string.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if appPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, appPreRelease)
	}
	if Commit != "" {
		version = fmt.Sprintf("%s commit=%s", version, Commit)
	}
	return version
}
