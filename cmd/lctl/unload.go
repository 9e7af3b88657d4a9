package main

import (
	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/component"
	"github.com/lithiumaddons/core/internal/env"
)

func newUnloadCmd() *cobra.Command {
	var root string
	var forced bool
	cmd := &cobra.Command{
		Use:   "unload <component>",
		Short: "Load everything under the addon root, then unload the named component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := component.New(logger(), root)
			ctx := cmd.Context()
			if err := m.Initialize(ctx); err != nil {
				return err
			}
			return m.UnloadComponent(ctx, args[0], forced)
		},
	}
	cmd.Flags().StringVar(&root, "root", env.AddonRoot, "addon root directory")
	cmd.Flags().BoolVar(&forced, "force", false, "unload even if other loaded components depend on it")
	return cmd
}
