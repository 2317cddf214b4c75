package version

import "fmt"

// Set by -ldflags "-X" at build time.
var (
	gitCommit = "unknown"
	buildDate = "unknown"
	semantic  = "v0.1.0"
)

// Get returns the version string of the running binary.
func Get() string {
	return fmt.Sprintf("%s/%s built at %s", semantic, gitCommit, buildDate)
}
