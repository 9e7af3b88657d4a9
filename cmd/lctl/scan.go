package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/component"
	"github.com/lithiumaddons/core/internal/env"
)

func newScanCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover addon components under the addon root without loading them",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := component.New(logger(), root)
			names, err := m.Scan(root)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", env.AddonRoot, "addon root directory")
	return cmd
}
