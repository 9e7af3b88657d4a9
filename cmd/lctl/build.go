package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/buildorch"
	"github.com/lithiumaddons/core/internal/env"
)

func newBuildCmd() *cobra.Command {
	var root string
	var concurrency int64
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan for build projects and run configure+build on each",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := buildorch.New(logger(), concurrency)
			if err := o.Scan(ctx, root); err != nil {
				return err
			}
			// A progress dot per project is only useful on an interactive
			// terminal; piped/CI output gets the final status lines only.
			showProgress := isatty.IsTerminal(os.Stderr.Fd())
			for _, p := range o.Projects() {
				if showProgress {
					fmt.Fprint(os.Stderr, ".")
				}
				res := o.Configure(ctx, p, 0, nil, nil)
				if !res.Success {
					fmt.Printf("%s: configure failed: %s\n", p.SourceDir, res.Message)
					continue
				}
				res = o.Build(ctx, p, nil)
				status := "ok"
				if !res.Success {
					status = "FAILED"
				}
				fmt.Printf("%s: build %s (exit %d)\n", p.SourceDir, status, res.ExitCode)
			}
			if showProgress {
				fmt.Fprintln(os.Stderr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", env.AddonRoot, "root directory to scan for build projects")
	cmd.Flags().Int64Var(&concurrency, "jobs", 4, "maximum concurrent project scans")
	return cmd
}
