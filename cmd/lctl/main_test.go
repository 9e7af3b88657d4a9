package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommandWiresEverySubcommand(t *testing.T) {
	root := &cobra.Command{Use: "lctl"}
	root.AddCommand(
		newScanCmd(),
		newResolveCmd(),
		newBuildCmd(),
		newLoadCmd(),
		newUnloadCmd(),
		newReloadCmd(),
		newSandboxCmd(),
		newTrackCmd(),
		newInfoCmd(),
	)
	want := []string{"scan", "resolve", "build", "load", "unload", "reload", "sandbox", "track", "info"}
	got := map[string]bool{}
	for _, c := range root.Commands() {
		got[c.Name()] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("expected subcommand %q to be registered, got %v", w, got)
		}
	}
}

func TestSandboxCommandHasRunSubcommand(t *testing.T) {
	sb := newSandboxCmd()
	found := false
	for _, c := range sb.Commands() {
		if c.Name() == "run" {
			found = true
		}
	}
	if !found {
		t.Error("sandbox command should register a run subcommand")
	}
}

func TestInfoCommandHasDocSubcommand(t *testing.T) {
	info := newInfoCmd()
	found := false
	for _, c := range info.Commands() {
		if c.Name() == "doc" {
			found = true
		}
	}
	if !found {
		t.Error("info command should register a doc subcommand")
	}
}

func TestTrackCommandHasScanAndDiffSubcommands(t *testing.T) {
	tr := newTrackCmd()
	names := map[string]bool{}
	for _, c := range tr.Commands() {
		names[c.Name()] = true
	}
	if !names["scan"] || !names["diff"] {
		t.Errorf("track command should register scan and diff subcommands, got %v", names)
	}
}
