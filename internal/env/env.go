// Package env captures ambient configuration read from the process
// environment (spec.md §6 "CLI / env surface").
package env

import "os"

// AddonRoot is the root directory under which addon directories (each
// carrying a manifest and dynamic artifacts) are discovered.
var AddonRoot = findAddonRoot()

func findAddonRoot() string {
	if v := os.Getenv("LITHIUM_ADDON_PATH"); v != "" {
		return v
	}
	return "./modules"
}
