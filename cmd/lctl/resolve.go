package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/depgraph"
	"github.com/lithiumaddons/core/internal/env"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [dir...]",
		Short: "Resolve a topological load order across addon manifest directories",
		Args:  cobra.MinimumNArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{env.AddonRoot}
			}
			order := depgraph.ResolveDirectories(dirs)
			if order == nil {
				return fmt.Errorf("resolution failed: cycle or version conflict among %v", dirs)
			}
			for _, id := range order {
				fmt.Println(id)
			}
			return nil
		},
	}
	return cmd
}
