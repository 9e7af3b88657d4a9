package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/sandbox"
)

func newSandboxCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "sandbox",
		Short: "Run programs under time and memory limits",
	}
	group.AddCommand(newSandboxRunCmd())
	return group
}

func newSandboxRunCmd() *cobra.Command {
	var timeLimitMs, memLimitBytes int64
	var rootDir string
	cmd := &cobra.Command{
		Use:   "run -- <program> [args...]",
		Short: "Run a single program under the configured resource limits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sandbox.NewSingle(sandbox.Spec{
				TimeLimitMs:      timeLimitMs,
				MemoryLimitBytes: memLimitBytes,
				RootDir:          rootDir,
				ProgramPath:      args[0],
				Args:             args[1:],
			})
			ok, err := s.Run(cmd.Context())
			report := s.Report()
			fmt.Printf("status=%s time_used_ms=%d memory_used_bytes=%d\n", report.ExitStatus, report.TimeUsedMs, report.MemoryUsedBytes)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("sandboxed program did not exit normally")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&timeLimitMs, "time-limit-ms", 0, "wall-clock time limit in milliseconds (0 = unlimited)")
	cmd.Flags().Int64Var(&memLimitBytes, "memory-limit-bytes", 0, "resident memory limit in bytes (0 = unlimited)")
	cmd.Flags().StringVar(&rootDir, "root-dir", "", "optional chroot target for the child")
	return cmd
}
