//go:build windows

package modloader

import "github.com/lithiumaddons/core/errs"

// Go's plugin package only supports linux/freebsd/darwin; on Windows every
// load attempt fails with PlatformUnsupported.
type pluginHandle struct{}

func openPlugin(path string) (pluginHandle, error) {
	return pluginHandle{}, &errs.PlatformUnsupported{Operation: "module load", Platform: "windows"}
}

func lookupSymbol(h pluginHandle, name string) (any, error) {
	return nil, &errs.PlatformUnsupported{Operation: "module symbol lookup", Platform: "windows"}
}
