package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return info, info != nil
	}
	t.Cleanup(func() { readBuildInfo = orig })
}

func withVars(t *testing.T, version, commit, built string) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })
}

func TestGetFromLdflags(t *testing.T) {
	withVars(t, "v1.2.3", "0123456789abcdef", "2025-01-02T03:04:05Z")
	withBuildInfo(t, nil)

	info := Get()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.True(t, info.Release)
	assert.False(t, info.Dirty)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), info.BuildTime)
	assert.Equal(t, "v1.2.3 (0123456)", info.Short())
}

func TestGetFromVCSSettings(t *testing.T) {
	withVars(t, "dev", "unknown", "unknown")
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abcdef0123456789"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := Get()
	assert.Equal(t, "dev-abcdef0", info.Version)
	assert.Equal(t, "abcdef0123456789", info.GitCommit)
	assert.False(t, info.Release)
	assert.True(t, info.Dirty)
	assert.True(t, info.BuildTime.IsZero())
	assert.Equal(t, "dev-abcdef0", info.Short())
}

func TestGetWithoutBuildInfo(t *testing.T) {
	withVars(t, "dev", "unknown", "unknown")
	withBuildInfo(t, nil)

	info := Get()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.GitCommit)
	assert.Equal(t, "dev", info.Short())
}

func TestString(t *testing.T) {
	info := BuildInfo{
		Version:   "v0.4.0",
		GitCommit: "1234567890",
		BuildTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
		Dirty:     true,
	}

	assert.Equal(t,
		"csvguard v0.4.0 (1234567) (dirty)\nBuilt: 2025-06-01T12:00:00Z\nGo: go1.24.4\nPlatform: linux/amd64\n",
		info.String())
}

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("").IsZero())
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
	assert.Equal(t, 2025, parseBuildTime("2025-03-04 05:06:07").Year())
	assert.Equal(t, 5, parseBuildTime("2025-03-04T05:06:07").Hour())
}
