// Package toolchain enumerates compilers and build tools present on the
// host and persists a named selection set (spec.md C7).
package toolchain

import (
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/renameio"

	"github.com/lithiumaddons/core/errs"
)

// Kind classifies a Toolchain entry.
type Kind int

const (
	UnknownKind Kind = iota
	Compiler
	BuildTool
)

// Toolchain describes one discovered compiler or build tool.
type Toolchain struct {
	Name      string
	Compiler  string
	BuildTool string
	Version   string
	Path      string
	Type      Kind
}

// wellKnown maps an executable name to the Kind and the languages it
// compiles, used both for discovery and for IsCompatibleWith.
var wellKnown = []struct {
	exe       string
	kind      Kind
	languages []string
}{
	{"gcc", Compiler, []string{"c", "c++"}},
	{"g++", Compiler, []string{"c++"}},
	{"clang", Compiler, []string{"c", "c++"}},
	{"clang++", Compiler, []string{"c++"}},
	{"cmake", BuildTool, nil},
	{"meson", BuildTool, nil},
	{"xmake", BuildTool, nil},
	{"ninja", BuildTool, nil},
	{"make", BuildTool, nil},
	{"go", Compiler, []string{"go"}},
	{"rustc", Compiler, []string{"rust"}},
}

// Registry holds discovered and user-selected toolchains, keyed by name.
type Registry struct {
	mu          sync.Mutex
	toolchains  map[string]Toolchain
	aliases     map[string]string
	defaultName string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		toolchains: map[string]Toolchain{},
		aliases:    map[string]string{},
	}
}

// Scan probes well-known executable names via exec.LookPath and records
// every one found.
func (r *Registry) Scan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, wk := range wellKnown {
		path, err := exec.LookPath(wk.exe)
		if err != nil {
			continue
		}
		r.toolchains[wk.exe] = Toolchain{
			Name: wk.exe,
			Path: path,
			Type: wk.kind,
		}
	}
}

// Add inserts or replaces a toolchain entry by name, rejecting a duplicate
// add of an unrelated toolchain under the same name is not enforced here;
// spec.md's only invariant is uniqueness by name, which a map naturally
// provides.
func (r *Registry) Add(t Toolchain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolchains[t.Name] = t
}

// Get returns the toolchain registered under name or alias.
func (r *Registry) Get(nameOrAlias string) (Toolchain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := nameOrAlias
	if target, ok := r.aliases[nameOrAlias]; ok {
		name = target
	}
	t, ok := r.toolchains[name]
	if !ok {
		return Toolchain{}, &errs.UnknownModule{Name: nameOrAlias}
	}
	return t, nil
}

// SetAlias registers alias as another name for target.
func (r *Registry) SetAlias(alias, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
}

// SetDefault marks name as the default toolchain.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.toolchains[name]; !ok {
		return &errs.UnknownModule{Name: name}
	}
	r.defaultName = name
	return nil
}

// Default returns the toolchain marked default, if any.
func (r *Registry) Default() (Toolchain, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.toolchains[r.defaultName]
	return t, ok
}

// IsCompatibleWith reports whether toolchain name is known to compile lang.
func (r *Registry) IsCompatibleWith(name, lang string) bool {
	for _, wk := range wellKnown {
		if wk.exe != name {
			continue
		}
		for _, l := range wk.languages {
			if strings.EqualFold(l, lang) {
				return true
			}
		}
	}
	return false
}

// SuggestCompatible returns every registered toolchain name compatible
// with lang.
func (r *Registry) SuggestCompatible(lang string) []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.toolchains))
	for name := range r.toolchains {
		names = append(names, name)
	}
	r.mu.Unlock()

	var out []string
	for _, name := range names {
		if r.IsCompatibleWith(name, lang) {
			out = append(out, name)
		}
	}
	return out
}

// persistedState is the on-disk JSON shape written by Save / read by Load.
type persistedState struct {
	Toolchains  map[string]Toolchain `json:"toolchains"`
	Aliases     map[string]string    `json:"aliases"`
	DefaultName string               `json:"default"`
}

// Save persists the selection set to path via an atomic rename.
func (r *Registry) Save(path string) error {
	r.mu.Lock()
	state := persistedState{
		Toolchains:  r.toolchains,
		Aliases:     r.aliases,
		DefaultName: r.defaultName,
	}
	r.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return &errs.IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Load restores a previously saved selection set from path.
func (r *Registry) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &errs.IoError{Op: "read", Path: path, Err: err}
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return &errs.ParseError{Source: path, Reason: err.Error()}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if state.Toolchains != nil {
		r.toolchains = state.Toolchains
	}
	if state.Aliases != nil {
		r.aliases = state.Aliases
	}
	r.defaultName = state.DefaultName
	return nil
}
