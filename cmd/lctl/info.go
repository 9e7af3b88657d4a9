package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lithiumaddons/core/internal/component"
	"github.com/lithiumaddons/core/internal/env"
)

func newInfoCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "info <component>",
		Short: "Print the scanned manifest record for a component (get_info)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := component.New(logger(), root)
			if _, err := m.Scan(root); err != nil {
				return err
			}
			rec, ok := m.GetInfo(args[0])
			if !ok {
				return fmt.Errorf("no manifest record for component %q", args[0])
			}
			fmt.Printf("id:           %s\n", rec.ID)
			fmt.Printf("version:      %s\n", rec.Version)
			fmt.Printf("dependencies: %v\n", rec.Dependencies)
			fmt.Printf("system_deps:  %v\n", rec.SystemDeps)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", env.AddonRoot, "addon root directory")

	doc := &cobra.Command{
		Use:   "doc <component>",
		Short: "Print the description recorded by a loaded component's module config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := component.New(logger(), root)
			if _, err := m.Scan(root); err != nil {
				return err
			}
			if err := m.LoadComponent(cmd.Context(), args[0]); err != nil {
				return err
			}
			text, ok := m.Doc(args[0])
			if !ok || text == "" {
				return fmt.Errorf("component %q has no recorded description", args[0])
			}
			fmt.Println(text)
			return nil
		},
	}
	doc.Flags().StringVar(&root, "root", env.AddonRoot, "addon root directory")
	cmd.AddCommand(doc)
	return cmd
}
