// Package component implements the top-level controller that scans addon
// directories, resolves a dependency-respecting load order, opens their
// modules, and drives each instance through Initialize/Destroy (spec.md
// C9).
package component

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/renameio"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lithiumaddons/core/errs"
	"github.com/lithiumaddons/core/internal/depgraph"
	"github.com/lithiumaddons/core/internal/manifest"
	"github.com/lithiumaddons/core/internal/modloader"
)

// Instance is what a loaded component's entry factory must return.
type Instance interface {
	Initialize(ctx context.Context) error
	Destroy(ctx context.Context) error
}

// entry describes one component discovered during a scan, prior to load.
type entry struct {
	Name         string
	AddonDir     string
	ModulePath   string
	FuncName     string
	Dependencies map[string]struct{}
	Record       manifest.PackageRecord
}

// loaded tracks a running component instance.
type loaded struct {
	instanceID uuid.UUID
	instance   Instance
	moduleName string
	mu         sync.Mutex // serializes per-component operations, per spec.md §5
}

// Manager is the top-level controller. AddonRoot is the directory scanned
// for manifests.
type Manager struct {
	Log       *log.Logger
	AddonRoot string

	loader *modloader.Loader
	graph  *depgraph.Graph

	mu       sync.RWMutex
	entries  map[string]entry
	running  map[string]*loaded
}

// New constructs a Manager rooted at addonRoot.
func New(logger *log.Logger, addonRoot string) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		Log:       logger,
		AddonRoot: addonRoot,
		loader:    modloader.New(),
		graph:     depgraph.New(),
		entries:   map[string]entry{},
		running:   map[string]*loaded{},
	}
}

func platformExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// Scan enumerates addon subdirectories under path, parsing each manifest
// and registering its declared components as load candidates. It returns
// the discovered component names without loading anything.
func (m *Manager) Scan(path string) ([]string, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, &errs.IoError{Op: "readdir", Path: path, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		addonDir := filepath.Join(path, de.Name())
		manifestPath := manifest.FindManifest(addonDir)
		if manifestPath == "" {
			continue
		}
		_, rec, err := manifest.Parse(manifestPath)
		if err != nil {
			m.Log.Printf("component: skip %s: %v", addonDir, err)
			continue
		}
		for compName, main := range rec.Main {
			deps := make(map[string]struct{}, len(rec.Dependencies))
			for dep := range rec.Dependencies {
				deps[dep] = struct{}{}
			}
			modulePath := addonDir
			if len(rec.Modules) > 0 {
				modulePath = filepath.Join(addonDir, rec.Modules[0]+platformExt())
			}
			m.entries[compName] = entry{
				Name:         compName,
				AddonDir:     addonDir,
				ModulePath:   modulePath,
				FuncName:     main.FuncName,
				Dependencies: deps,
				Record:       rec,
			}
			m.graph.AddNode(compName, rec.Version)
			names = append(names, compName)
		}
		for dep, constraint := range rec.Dependencies {
			for compName := range rec.Main {
				_ = m.graph.AddEdge(compName, dep, constraint)
			}
		}
	}
	return names, nil
}

// loadOrder returns the topological load order or a Cycle error.
func (m *Manager) loadOrder() ([]string, error) {
	order, ok := m.graph.TopologicalSort()
	if !ok {
		return nil, &errs.Cycle{Members: m.graph.CycleMembers()}
	}
	return order, nil
}

// Initialize runs the full scan → resolve → load algorithm against
// m.AddonRoot, aborting on the first cycle or load failure.
func (m *Manager) Initialize(ctx context.Context) error {
	if _, err := m.Scan(m.AddonRoot); err != nil {
		return err
	}
	order, err := m.loadOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		m.mu.RLock()
		_, known := m.entries[name]
		m.mu.RUnlock()
		if !known {
			continue // a pure dependency edge target with no component entry, e.g. a system dep
		}
		if err := m.LoadComponent(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// checkComponent validates a component's load prerequisites before the
// module loader ever opens its artifact, per spec.md §4.9 step 3: the
// artifact (when one is declared) must exist and carry the platform's
// native extension, the addon directory must still carry a manifest, and
// an entry symbol must have been declared.
func checkComponent(addonDir, modulePath, funcName string) error {
	if funcName == "" {
		return &errs.MissingField{Source: addonDir, Field: "m_func_name"}
	}
	if manifest.FindManifest(addonDir) == "" {
		return &errs.MissingField{Source: addonDir, Field: "package manifest"}
	}
	if !strings.HasSuffix(modulePath, platformExt()) {
		return nil
	}
	info, err := os.Stat(modulePath)
	if err != nil {
		return &errs.IoError{Op: "stat", Path: modulePath, Err: err}
	}
	if info.IsDir() {
		return &errs.LoadFailure{Module: modulePath, Reason: "expected a " + platformExt() + " artifact, found a directory"}
	}
	return nil
}

// LoadComponent performs the open/instantiate/initialize/register steps
// for a single component. Its transitive dependencies must already be
// loaded; it loads them first if not (P6).
func (m *Manager) LoadComponent(ctx context.Context, name string) error {
	m.mu.RLock()
	e, ok := m.entries[name]
	_, already := m.running[name]
	m.mu.RUnlock()
	if !ok {
		return &errs.UnknownComponent{Name: name}
	}
	if already {
		return nil
	}

	for dep := range e.Dependencies {
		m.mu.RLock()
		_, depEntryExists := m.entries[dep]
		_, depRunning := m.running[dep]
		m.mu.RUnlock()
		if depEntryExists && !depRunning {
			if err := m.LoadComponent(ctx, dep); err != nil {
				return err
			}
		}
	}

	if !m.loader.Has(name) {
		if err := checkComponent(e.AddonDir, e.ModulePath, e.FuncName); err != nil {
			return err
		}
		if err := m.loader.Load(name, e.ModulePath); err != nil {
			return err
		}
	}
	mod, err := m.loader.Get(name)
	if err != nil {
		return err
	}
	instance, err := modloader.GetInstance[Instance](m.loader, name, e.FuncName, mod.Config)
	if err != nil {
		return err
	}
	if err := instance.Initialize(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.running[name] = &loaded{instanceID: uuid.New(), instance: instance, moduleName: name}
	m.mu.Unlock()
	return nil
}

// dependents returns the names of currently-loaded components that have
// name in their transitive dependency set.
func (m *Manager) dependents(name string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for running := range m.running {
		for _, t := range m.graph.TransitiveDependencies(running) {
			if t == name {
				out = append(out, running)
				break
			}
		}
	}
	return out
}

// UnloadComponent reverses load for name. It fails with InUse if a loaded
// component still depends on it, unless forced is true (P7).
func (m *Manager) UnloadComponent(ctx context.Context, name string, forced bool) error {
	if deps := m.dependents(name); len(deps) > 0 && !forced {
		return &errs.InUse{Name: name, Dependents: deps}
	}

	m.mu.Lock()
	l, ok := m.running[name]
	m.mu.Unlock()
	if !ok {
		return &errs.UnknownComponent{Name: name}
	}

	l.mu.Lock()
	err := l.instance.Destroy(ctx)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.running, name)
	m.mu.Unlock()
	return m.loader.Unload(name)
}

// ReloadComponent tears the named component down and rebuilds it. Per the
// resolved design, reload is never an in-place reinitialize: it always
// destroys and re-instantiates.
func (m *Manager) ReloadComponent(ctx context.Context, name string) error {
	if err := m.UnloadComponent(ctx, name, true); err != nil {
		return err
	}
	return m.LoadComponent(ctx, name)
}

// ReloadAll tears down every running component in reverse topological
// order, then rebuilds all of them in topological order.
func (m *Manager) ReloadAll(ctx context.Context) error {
	order, err := m.loadOrder()
	if err != nil {
		return err
	}
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		m.mu.RLock()
		_, running := m.running[name]
		m.mu.RUnlock()
		if running {
			if err := m.UnloadComponent(ctx, name, true); err != nil {
				return err
			}
		}
	}
	for _, name := range order {
		m.mu.RLock()
		_, known := m.entries[name]
		m.mu.RUnlock()
		if known {
			if err := m.LoadComponent(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetComponent returns the running instance registered under name.
func (m *Manager) GetComponent(name string) (Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.running[name]
	if !ok {
		return nil, false
	}
	return l.instance, true
}

// GetInfo returns the manifest record discovered for name during Scan,
// regardless of whether the component has been loaded.
func (m *Manager) GetInfo(name string) (manifest.PackageRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return manifest.PackageRecord{}, false
	}
	return e.Record, true
}

// Doc returns the description carried by a loaded component's sibling
// config file (spec.md C8 metadata). It only answers for components that
// are currently loaded, since the description lives on the opened Module,
// not the pre-load manifest record.
func (m *Manager) Doc(name string) (string, bool) {
	m.mu.RLock()
	_, running := m.running[name]
	m.mu.RUnlock()
	if !running {
		return "", false
	}
	mod, err := m.loader.Get(name)
	if err != nil {
		return "", false
	}
	return mod.Description, true
}

// Has reports whether name is currently loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.running[name]
	return ok
}

// List returns the names of every currently loaded component.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.running))
	for name := range m.running {
		out = append(out, name)
	}
	return out
}

// lockEntry is one value in the lockfile's top-level object.
type lockEntry struct {
	Version      string      `json:"version"`
	Dependencies []lockDep   `json:"dependencies"`
}

type lockDep struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// SavePackageLock writes the effective resolved graph to path in
// topological order, for reproducible re-initialization.
func (m *Manager) SavePackageLock(path string) error {
	order, err := m.loadOrder()
	if err != nil {
		return err
	}

	data := []byte("{")
	m.mu.RLock()
	for _, name := range order {
		e, ok := m.entries[name]
		if !ok {
			continue
		}
		var deps []lockDep
		for dep := range e.Dependencies {
			deps = append(deps, lockDep{Name: dep})
		}
		key, _ := json.Marshal(name)
		val, _ := json.Marshal(lockEntry{Dependencies: deps})
		if len(data) > 1 {
			data = append(data, ',')
		}
		data = append(append(append(append(data, "\n  "...), key...), ": "...), val...)
	}
	m.mu.RUnlock()
	data = append(data, "\n}\n"...)

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return &errs.IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// TraverseWithContext runs f against the manager's transitive closure in
// dependency order, surfacing any error from the first failing component.
// This is a thin wrapper exposing the graph's parallel traversal through
// the component manager for callers that want to fan out independent
// readiness checks.
func (m *Manager) TraverseWithContext(ctx context.Context, workers int, f func(ctx context.Context, name string) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return m.graph.TraverseInParallel(egCtx, workers, f)
	})
	return eg.Wait()
}
