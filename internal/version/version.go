// Package version reports the apifp build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at link time:
//
//	go build -ldflags "-X apifp/internal/version.Version=0.4.0 -X apifp/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.3.0"
	Commit    = ""
	BuildDate = ""
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build description. Commit and BuildDate fall back to the
// VCS stamp the go tool embeds when the linker flags were not set.
func Get() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		stampFrom(&info, bi.Settings)
	}
	return info
}

func stampFrom(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// Short is the version with an abbreviated commit, e.g. "0.3.0 (1a2b3c4)"
func (b BuildInfo) Short() string {
	if len(b.Commit) < 7 {
		return b.Version
	}
	rev := b.Commit[:7]
	if b.Modified {
		rev += "-dirty"
	}
	return b.Version + " (" + rev + ")"
}

func (b BuildInfo) String() string {
	s := "apifp version " + b.Short() + "\n"
	if b.BuildDate != "" {
		s += "Built:   " + b.BuildDate + "\n"
	}
	return s + fmt.Sprintf("Go:      %s %s", b.GoVersion, b.Platform)
}
