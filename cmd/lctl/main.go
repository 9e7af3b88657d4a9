// Command lctl is the command-line front door to the addon platform: it
// scans, resolves, builds, loads, and sandboxes addons rooted at
// LITHIUM_ADDON_PATH.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	lithium "github.com/lithiumaddons/core"
)

func main() {
	ctx, cancel := lithium.InterruptibleContext()
	defer cancel()
	defer func() {
		if err := lithium.RunShutdownHooks(); err != nil {
			fmt.Fprintln(os.Stderr, "lctl: shutdown:", err)
		}
	}()

	root := &cobra.Command{
		Use:   "lctl",
		Short: "Control addon resolution, builds, and loading for Lithium",
	}
	root.SetContext(ctx)
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
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() *log.Logger {
	return log.New(os.Stderr, "lctl: ", log.LstdFlags)
}
