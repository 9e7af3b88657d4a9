//go:build !windows

package modloader

import "plugin"

type pluginHandle = *plugin.Plugin

func openPlugin(path string) (pluginHandle, error) {
	return plugin.Open(path)
}

func lookupSymbol(h pluginHandle, name string) (any, error) {
	sym, err := h.Lookup(name)
	if err != nil {
		return nil, err
	}
	return sym, nil
}
