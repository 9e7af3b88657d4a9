package buildadapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingKeyFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	for _, tt := range []struct {
		name    string
		content string
	}{
		{"missing buildType", `{"options":[],"envVars":{}}`},
		{"missing options", `{"buildType":"Release","envVars":{}}`},
		{"missing envVars", `{"buildType":"Release","options":[]}`},
		{"unknown buildType", `{"buildType":"Bogus","options":[],"envVars":{}}`},
		{"malformed json", `not json`},
	} {
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatal(err)
		}
		c := NewCMake(nil)
		if c.LoadConfig(path) {
			t.Errorf("%s: LoadConfig should fail", tt.name)
		}
	}
}

func TestLoadConfigSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"buildType":"Release","options":["-DFOO=1"],"envVars":{"CC":"clang"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCMake(nil)
	if !c.LoadConfig(path) {
		t.Fatal("LoadConfig should succeed")
	}
	if c.config.BuildType != Release {
		t.Errorf("BuildType = %v, want Release", c.config.BuildType)
	}
}

func TestCMakeCleanRemovesDirectory(t *testing.T) {
	dir := t.TempDir()
	buildDir := filepath.Join(dir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	c := NewCMake(nil)
	res := c.Clean(context.Background(), buildDir)
	if !res.Success {
		t.Fatalf("Clean failed: %+v", res)
	}
	if _, err := os.Stat(buildDir); !os.IsNotExist(err) {
		t.Error("build directory should be removed")
	}
}

// Real `cmake --build --target help` output prefixes every target line
// with "... "; the prefix is stripped and the first word kept as the name.
func TestCMakeListTargetsParsing(t *testing.T) {
	msg := "Some banner\n" +
		"The following are some of the valid targets for this Makefile:\n" +
		"... all (the default if no target is provided)\n" +
		"... clean\n"
	targets := parseCMakeHelpTargets(msg)
	if len(targets) != 2 || targets[0] != "all" || targets[1] != "clean" {
		t.Errorf("parseCMakeHelpTargets = %v, want [all clean]", targets)
	}
}

func TestCMakeListTargetsStopsAtEllipsisMarker(t *testing.T) {
	msg := "The following are some of the valid targets for this Makefile:\n" +
		"justatarget\n" +
		"...\n" +
		"never reached\n"
	targets := parseCMakeHelpTargets(msg)
	if len(targets) != 1 || targets[0] != "justatarget" {
		t.Errorf("parseCMakeHelpTargets = %v, want [justatarget]", targets)
	}
}

func TestGetCacheVariablesNoCache(t *testing.T) {
	c := NewCMake(nil)
	vars, err := c.GetCacheVariables(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if vars != nil {
		t.Errorf("expected nil vars for a build dir with no CMakeCache.txt, got %v", vars)
	}
}

func TestGetCacheVariablesParsesCacheFile(t *testing.T) {
	dir := t.TempDir()
	content := "// comment\nCMAKE_BUILD_TYPE:STRING=Release\n#also a comment\nCMAKE_INSTALL_PREFIX:PATH=/usr/local\n"
	if err := os.WriteFile(filepath.Join(dir, "CMakeCache.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCMake(nil)
	vars, err := c.GetCacheVariables(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"CMAKE_BUILD_TYPE": "Release", "CMAKE_INSTALL_PREFIX": "/usr/local"}
	if len(vars) != len(want) {
		t.Fatalf("got %v, want %v entries", vars, want)
	}
	for _, kv := range vars {
		if want[kv[0]] != kv[1] {
			t.Errorf("%s = %s, want %s", kv[0], kv[1], want[kv[0]])
		}
	}
}
