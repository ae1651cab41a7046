package version

import (
	"strings"
	"testing"
)

func TestInfoDevelopmentBuild(t *testing.T) {
	result := Info()
	if !strings.Contains(result, "development build") {
		t.Errorf("Info() = %q; want development build marker", result)
	}
	if !strings.Contains(result, Version) {
		t.Errorf("Info() = %q; want version %q", result, Version)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version != Version {
		t.Errorf("GetBuildInfo().Version = %q; want %q", info.Version, Version)
	}
	if info.GoVersion == "" {
		t.Error("GetBuildInfo().GoVersion is empty")
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("GetBuildInfo().Platform = %q; want os/arch", info.Platform)
	}
}
