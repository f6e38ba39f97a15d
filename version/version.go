package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/teranos/medf/medf"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`

	// Document format written by this build and the range it reads.
	FormatVersion     string `json:"format_version"`
	SupportedVersions string `json:"supported_versions"`
}

// Get returns the current version information. Without ldflags the VCS
// stamp recorded by the Go toolchain is used when available.
func Get() Info {
	info := Info{
		CommitHash:        CommitHash,
		BuildTime:         BuildTime,
		Version:           Version,
		GoVersion:         runtime.Version(),
		Platform:          fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		FormatVersion:     medf.CurrentVersion,
		SupportedVersions: medf.SupportedVersions,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.CommitHash == "dev":
				info.CommitHash = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "unknown":
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String returns a human-readable version string
func (i Info) String() string {
	return fmt.Sprintf("medf %s (commit %s, built %s, format %s)", i.Version, i.Short(), i.BuildTime, i.FormatVersion)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
