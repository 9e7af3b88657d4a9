package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/lithiumaddons/core/internal/component"
	"github.com/lithiumaddons/core/internal/env"
)

func newLoadCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "load [component...]",
		Short: "Scan the addon root and load the named components (or every discovered component)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := component.New(logger(), root)
			if _, err := m.Scan(root); err != nil {
				return err
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				return m.Initialize(ctx)
			}
			for _, name := range args {
				if err := m.LoadComponent(ctx, name); err != nil {
					return xerrors.Errorf("load %s: %w", name, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", env.AddonRoot, "addon root directory")
	return cmd
}
