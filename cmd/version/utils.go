package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// These variables can be overridden at build time with ldflags
var (
	Version   string // -X github.com/lenda-labs/uid-signer/cmd/version.Version=...
	Commit    string // -X github.com/lenda-labs/uid-signer/cmd/version.Commit=...
	BuildTime string // -X github.com/lenda-labs/uid-signer/cmd/version.BuildTime=...
)

const devVersion = "dev"

// readBuildInfo is debug.ReadBuildInfo outside of tests.
var readBuildInfo = debug.ReadBuildInfo

func buildSetting(key string) string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// GetVersion returns the ldflags version if set, otherwise the module version
// recorded by the go toolchain.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}

// getCommit returns the commit (short form) from ldflags or VCS stamping.
func getCommit() string {
	commit := Commit
	if commit == "" {
		commit = buildSetting("vcs.revision")
	}

	// Return short form (9 chars) for readability
	const shortHashLength = 9
	if len(commit) > shortHashLength {
		return commit[:shortHashLength]
	}
	return commit
}

func isDirty() bool {
	if Version != "" {
		return strings.HasSuffix(Version, "dirty")
	}
	return buildSetting("vcs.modified") == "true"
}

func getBuildTime() time.Time {
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.RFC3339, buildSetting("vcs.time")); err == nil {
		return t
	}
	return time.Time{}
}

// getBuildTimeDisplay notes whether the timestamp is the commit time or, for a dirty
// tree, the build time.
func getBuildTimeDisplay() string {
	buildTime := getBuildTime()
	if buildTime.IsZero() {
		return "unknown"
	}
	if BuildTime != "" && isDirty() {
		return buildTime.Format(time.RFC3339) + " (build time)"
	}
	return buildTime.Format(time.RFC3339) + " (commit time)"
}
