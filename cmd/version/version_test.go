package version

import (
	"bytes"
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func withLdflags(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	Version, Commit, BuildTime = version, commit, buildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})
}

func TestLdflagsTakePrecedence(t *testing.T) {
	withLdflags(t, "v1.2.0", "0123456789abcdef", "2025-01-01T12:00:00Z")
	withBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v0.9.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffffffff"}},
	})

	assert.Equal(t, "v1.2.0", GetVersion())
	assert.Equal(t, "012345678", getCommit())
	assert.Equal(t, "2025-01-01T12:00:00Z (commit time)", getBuildTimeDisplay())
}

func TestDirtyBuildReportsBuildTime(t *testing.T) {
	withLdflags(t, "v1.2.0-dirty", "abc", "2025-01-01T12:00:00Z")
	withBuildInfo(t, nil)

	assert.Equal(t, "2025-01-01T12:00:00Z (build time)", getBuildTimeDisplay())
}

func TestBuildInfoFallback(t *testing.T) {
	withLdflags(t, "", "", "")
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeefcafe"},
			{Key: "vcs.time", Value: "2024-12-31T08:00:00Z"},
		},
	})

	assert.Equal(t, "v0.3.1", GetVersion())
	assert.Equal(t, "deadbeefc", getCommit())
	assert.Equal(t, "2024-12-31T08:00:00Z (commit time)", getBuildTimeDisplay())
}

func TestNoBuildInfo(t *testing.T) {
	withLdflags(t, "", "", "")
	withBuildInfo(t, nil)

	assert.Equal(t, "dev", GetVersion())
	assert.Equal(t, "", getCommit())
	assert.Equal(t, "unknown", getBuildTimeDisplay())
}

func TestVersionCmd(t *testing.T) {
	withLdflags(t, "v1.0.0", "abc123", "")
	withBuildInfo(t, nil)

	t.Run("Text", func(t *testing.T) {
		cmd := NewVersionCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "uid-signer")
		assert.Contains(t, out.String(), "v1.0.0")
		assert.Contains(t, out.String(), "abc123")
	})

	t.Run("JSON", func(t *testing.T) {
		cmd := NewVersionCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--json"})

		require.NoError(t, cmd.Execute())
		var info versionInfo
		require.NoError(t, json.Unmarshal(out.Bytes(), &info))
		assert.Equal(t, "v1.0.0", info.Version)
		assert.Equal(t, "abc123", info.GitCommit)
		assert.Equal(t, "unknown", info.BuildTime)
	})
}
