package version

import (
	"runtime"
	"runtime/debug"
	"testing"
)

// stamp overrides the ldflags variables and the build info reader for one test
func stamp(t *testing.T, version, commit, date string, bi *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldCommit, oldDate, oldRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, Date, readBuildInfo = oldVersion, oldCommit, oldDate, oldRead
	})
	Version, Commit, Date = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func installed(mainVersion string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/felixgeelhaar/complyscan", Version: mainVersion},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0f3c9a1b7d2e4f60"},
			{Key: "vcs.time", Value: "2026-03-02T10:00:00Z"},
		},
	}
}

func TestGetInfo_GoInstallUsesModuleVersion(t *testing.T) {
	stamp(t, "dev", "unknown", "unknown", installed("v0.4.1"))

	info := GetInfo()
	if info.Version != "v0.4.1" {
		t.Errorf("Version = %q, want the module version", info.Version)
	}
	if info.Commit != "0f3c9a1b7d2e4f60" {
		t.Errorf("Commit = %q, want the vcs revision", info.Commit)
	}
	if info.Date != "2026-03-02T10:00:00Z" {
		t.Errorf("Date = %q, want the vcs time", info.Date)
	}
	if info.Short() != "v0.4.1" {
		t.Errorf("Short() = %q, reports carry the resolved version", info.Short())
	}
}

func TestGetInfo_LdflagsWin(t *testing.T) {
	stamp(t, "1.2.0", "abc1234", "2026-01-15", installed("v0.4.1"))

	info := GetInfo()
	if info.Version != "1.2.0" || info.Commit != "abc1234" || info.Date != "2026-01-15" {
		t.Errorf("ldflags were overridden by build info: %+v", info)
	}
}

func TestGetInfo_LocalBuildStaysDev(t *testing.T) {
	// go build inside the checkout reports "(devel)"
	stamp(t, "dev", "unknown", "unknown", installed("(devel)"))

	info := GetInfo()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
	if info.Commit != "0f3c9a1b7d2e4f60" {
		t.Errorf("Commit = %q, the vcs stamp still applies", info.Commit)
	}
	if info.IsRelease() {
		t.Error("a dev build is not a release")
	}
}

func TestGetInfo_WithoutBuildInfo(t *testing.T) {
	stamp(t, "dev", "unknown", "unknown", nil)

	info := GetInfo()
	want := Info{
		Version:   "dev",
		Commit:    "unknown",
		Date:      "unknown",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info != want {
		t.Errorf("GetInfo() = %+v, want %+v", info, want)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v0.4.1",
		Commit:    "0f3c9a1b7d2e4f60",
		Date:      "2026-03-02",
		GoVersion: "go1.24.6",
		Platform:  "darwin/arm64",
	}
	want := "complyscan v0.4.1 (0f3c9a1b) built 2026-03-02 with go1.24.6 for darwin/arm64"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	info.Commit = "abc"
	if got := info.String(); got != "complyscan v0.4.1 (abc) built 2026-03-02 with go1.24.6 for darwin/arm64" {
		t.Errorf("short commit should print as is, got %q", got)
	}
}

func TestInfoIsRelease(t *testing.T) {
	for version, want := range map[string]bool{
		"v1.0.0":         true,
		"1.0.0":          true,
		"v0.4.1":         true,
		"v1.0.0-rc.1":    false,
		"v1.0.0+dirty":   false,
		"dev":            false,
		"":               false,
		"v0.0.0-2026abc": false,
	} {
		if got := (Info{Version: version}).IsRelease(); got != want {
			t.Errorf("IsRelease(%q) = %v, want %v", version, got, want)
		}
	}
}
