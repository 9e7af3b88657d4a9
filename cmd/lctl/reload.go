package main

import (
	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/component"
	"github.com/lithiumaddons/core/internal/env"
)

func newReloadCmd() *cobra.Command {
	var root string
	var all bool
	cmd := &cobra.Command{
		Use:   "reload [component]",
		Short: "Reload one component, or every loaded component with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := component.New(logger(), root)
			ctx := cmd.Context()
			if err := m.Initialize(ctx); err != nil {
				return err
			}
			if all {
				return m.ReloadAll(ctx)
			}
			if len(args) != 1 {
				return cmd.Usage()
			}
			return m.ReloadComponent(ctx, args[0])
		},
	}
	cmd.Flags().StringVar(&root, "root", env.AddonRoot, "addon root directory")
	cmd.Flags().BoolVar(&all, "all", false, "reload every loaded component")
	return cmd
}
