// Package version exposes build metadata of the running binary.
package version

import (
	"runtime/debug"
)

const unknown = "unknown"

// Version, Commit and Date are set with -ldflags "-X" at release time and
// filled from the embedded build info otherwise.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Version, Commit and Date from the module build info
// when they were not injected by the linker.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String renders the one-line version banner.
func String(binary string) string {
	return binary + " " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
