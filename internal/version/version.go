// Package version carries build metadata stamped in at link time.
package version

import (
	"runtime"
	"runtime/debug"
)

// AppName is the canonical application name.
const AppName = "lockInRecorder"

// Set via ldflags, e.g.
//
//	go build -ldflags "-X .../internal/version.Version=1.2.0 \
//	  -X .../internal/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns version and build information. When the ldflags were not
// set it falls back to the VCS metadata the toolchain embeds.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range bi.Settings {
				switch setting.Key {
				case "vcs.revision":
					info.GitCommit = setting.Value
				case "vcs.time":
					if info.BuildDate == "unknown" {
						info.BuildDate = setting.Value
					}
				}
			}
		}
	}

	return info
}

// String returns the bare version string.
func String() string {
	return Version
}
