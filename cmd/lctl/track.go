package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/filetracker"
)

func newTrackCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "track",
		Short: "Snapshot and diff a directory's file set",
	}
	group.AddCommand(newTrackScanCmd(), newTrackDiffCmd())
	return group
}

func trackerFlags(cmd *cobra.Command) (dir, manifest *string, recursive *bool) {
	dir = cmd.Flags().String("dir", ".", "directory to track")
	manifest = cmd.Flags().String("manifest", "file_tracker_manifest.json", "manifest file path")
	recursive = cmd.Flags().Bool("recursive", false, "scan subdirectories")
	return
}

func newTrackScanCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "scan", Short: "Snapshot the tracked directory's file set"}
	dir, manifest, recursive := trackerFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		t := filetracker.New(*dir, *manifest, nil, *recursive)
		return t.Scan(cmd.Context())
	}
	return cmd
}

func newTrackDiffCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "diff", Short: "Scan, then print the diff against the previous manifest"}
	dir, manifest, recursive := trackerFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		t := filetracker.New(*dir, *manifest, nil, *recursive)
		if err := t.Scan(cmd.Context()); err != nil {
			return err
		}
		for _, entry := range t.Compare() {
			fmt.Printf("%s %s\n", entry.Status, entry.Path)
		}
		return nil
	}
	return cmd
}
