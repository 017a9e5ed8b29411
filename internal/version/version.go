// Where: internal/version/version.go
// What: Version information retrieval.
// Why: Surface build-time VCS information in `emx version`.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is overridden at release time via -ldflags.
var Version = ""

// GetVersion returns the release version when set, otherwise the VCS
// revision from build info ("dev" when neither is available).
func GetVersion() string {
	if Version != "" {
		return Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if modified {
		return fmt.Sprintf("%s (dirty)", revision)
	}
	return revision
}
