// Package modloader opens compiled plugin artifacts (Go plugin .so files)
// and resolves symbols out of them, mirroring spec.md C8's module table.
package modloader

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/lithiumaddons/core/errs"
)

// Module records one loaded plugin artifact, including the metadata and
// config read from its sibling JSON file, if any.
type Module struct {
	Name        string
	Path        string
	Enabled     bool
	Description string
	Version     string
	Kind        string
	Author      string
	License     string
	ConfigPath  string
	Config      map[string]any

	handle pluginHandle
}

// configPathFor returns the sibling JSON config path for a plugin artifact
// path, replacing its extension with .json (e.g. "foo.so" -> "foo.json").
func configPathFor(path string) string {
	ext := ""
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		ext = path[i:]
	}
	if ext == "" {
		return path + ".json"
	}
	return strings.TrimSuffix(path, ext) + ".json"
}

// moduleMeta is the metadata a sibling config file may carry alongside the
// opaque config values passed to a factory symbol.
type moduleMeta struct {
	configPath  string
	config      map[string]any
	description string
	version     string
	kind        string
	author      string
	license     string
}

// loadConfig reads and parses the sibling config file for a module artifact.
// A missing or malformed file is not fatal: it is logged and the module
// loads with an empty config, matching the "warn, don't fail" semantics of
// spec.md C8.
func loadConfig(path string) moduleMeta {
	meta := moduleMeta{configPath: configPathFor(path)}
	data, err := os.ReadFile(meta.configPath)
	if err != nil {
		log.Printf("modloader: reading config %s: %v", meta.configPath, err)
		return meta
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("modloader: parsing config %s: %v", meta.configPath, err)
		return meta
	}
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	meta.config = raw
	meta.description = str("description")
	meta.version = str("version")
	meta.kind = str("type")
	meta.author = str("author")
	meta.license = str("license")
	return meta
}

// Loader holds the module table behind a reader-writer lock, plus a
// shared-instance cache keyed by "module/symbol" for GetInstance callers
// that want a process-wide singleton rather than a fresh value per call.
type Loader struct {
	mu      sync.RWMutex
	modules map[string]*Module

	instances sync.Map // string -> any
}

// New returns an empty Loader.
func New() *Loader {
	return &Loader{modules: map[string]*Module{}}
}

// Load opens the plugin artifact at path and registers it under name.
// Loading a name that is already registered is a Duplicate error; callers
// must Unload first.
func (l *Loader) Load(name, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.modules[name]; ok {
		return &errs.Duplicate{Kind: "module", Name: name}
	}
	h, err := openPlugin(path)
	if err != nil {
		return &errs.LoadFailure{Module: name, Reason: err.Error()}
	}
	meta := loadConfig(path)
	l.modules[name] = &Module{
		Name:        name,
		Path:        path,
		Enabled:     true,
		Description: meta.description,
		Version:     meta.version,
		Kind:        meta.kind,
		Author:      meta.author,
		License:     meta.license,
		ConfigPath:  meta.configPath,
		Config:      meta.config,
		handle:      h,
	}
	return nil
}

// RegisterBuiltin registers name as loaded without opening a plugin
// artifact, pre-seeding the instance cache for symbolName with instance.
// This lets a host embed a statically-linked component alongside
// dynamically loaded ones under the same module table.
func (l *Loader) RegisterBuiltin(name, symbolName string, instance any) error {
	l.mu.Lock()
	if _, ok := l.modules[name]; ok {
		l.mu.Unlock()
		return &errs.Duplicate{Kind: "module", Name: name}
	}
	l.modules[name] = &Module{Name: name, Path: "", Enabled: true}
	l.mu.Unlock()
	l.instances.Store(name+"/"+symbolName, instance)
	return nil
}

// Unload removes the module registered under name from the table and
// removes any cached instances that came from it. The opened plugin
// handle is not closed.
func (l *Loader) Unload(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.modules[name]; !ok {
		return &errs.UnknownModule{Name: name}
	}
	delete(l.modules, name)
	prefix := name + "/"
	l.instances.Range(func(k, _ any) bool {
		if ks, ok := k.(string); ok && len(ks) >= len(prefix) && ks[:len(prefix)] == prefix {
			l.instances.Delete(k)
		}
		return true
	})
	return nil
}

// UnloadAll unloads every registered module.
func (l *Loader) UnloadAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modules = map[string]*Module{}
	l.instances = sync.Map{}
}

// Has reports whether name is registered.
func (l *Loader) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.modules[name]
	return ok
}

// Get returns the registered Module by name.
func (l *Loader) Get(name string) (*Module, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.modules[name]
	if !ok {
		return nil, &errs.UnknownModule{Name: name}
	}
	return m, nil
}

// Enable marks a loaded module enabled.
func (l *Loader) Enable(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.modules[name]
	if !ok {
		return &errs.UnknownModule{Name: name}
	}
	m.Enabled = true
	return nil
}

// Disable marks a loaded module disabled without unloading it.
func (l *Loader) Disable(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.modules[name]
	if !ok {
		return &errs.UnknownModule{Name: name}
	}
	m.Enabled = false
	return nil
}

// IsEnabled reports a module's enabled status.
func (l *Loader) IsEnabled(name string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.modules[name]
	if !ok {
		return false, &errs.UnknownModule{Name: name}
	}
	return m.Enabled, nil
}

// HasFunction reports whether symbolName resolves inside the named module.
func (l *Loader) HasFunction(name, symbolName string) bool {
	l.mu.RLock()
	m, ok := l.modules[name]
	l.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := lookupSymbol(m.handle, symbolName)
	return err == nil
}

// GetSymbol resolves symbolName from the named module and asserts it to T.
func GetSymbol[T any](l *Loader, name, symbolName string) (T, error) {
	var zero T
	l.mu.RLock()
	m, ok := l.modules[name]
	l.mu.RUnlock()
	if !ok {
		return zero, &errs.UnknownModule{Name: name}
	}
	sym, err := lookupSymbol(m.handle, symbolName)
	if err != nil {
		return zero, &errs.LoadFailure{Module: name, Reason: err.Error()}
	}
	typed, ok := sym.(T)
	if !ok {
		return zero, &errs.LoadFailure{Module: name, Reason: "symbol " + symbolName + " has unexpected type"}
	}
	return typed, nil
}

// GetInstance resolves a `func(config map[string]any) T` factory symbol
// from the named module, invokes it with config, and caches the result per
// (module, symbol) pair, so repeated calls return the same shared instance.
// config is threaded through verbatim to the factory, per spec.md C8's
// get_instance<T>(name, config, factory_symbol) contract; builtins
// pre-seeded via RegisterBuiltin are returned straight from cache and never
// see config, since they were already constructed at registration time.
func GetInstance[T any](l *Loader, name, symbolName string, config map[string]any) (T, error) {
	var zero T
	key := name + "/" + symbolName
	if cached, ok := l.instances.Load(key); ok {
		if typed, ok := cached.(T); ok {
			return typed, nil
		}
	}
	factory, err := GetSymbol[func(map[string]any) T](l, name, symbolName)
	if err != nil {
		return zero, err
	}
	instance := factory(config)
	l.instances.Store(key, instance)
	return instance, nil
}
