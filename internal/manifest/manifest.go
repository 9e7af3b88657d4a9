// Package manifest parses addon package manifests in any of three
// interchangeable textual formats into a uniform record (spec.md C2).
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lithiumaddons/core/errs"
	"github.com/lithiumaddons/core/internal/version"
)

// systemPrefix marks a dependency name as a system prerequisite rather than
// a package dependency; its length (7) is fixed by spec.md §4.2.
const systemPrefix = "system:"

// MainEntry describes one component's load-time entry point, keyed by
// component name in PackageRecord.Main.
type MainEntry struct {
	FuncName      string
	ComponentType string
}

// PackageRecord is the uniform record every format parses into.
type PackageRecord struct {
	ID           string
	Version      version.Version
	Dependencies map[string]version.Constraint
	SystemDeps   map[string]version.Constraint
	Modules      []string
	Main         map[string]MainEntry
}

// rawDependency is the format-agnostic shape a per-format decoder produces
// before system: prefixes are stripped and routed.
type rawDependency struct {
	Name       string
	Constraint string // may be empty, meaning "any version"
}

// rawManifest is what each format-specific decoder builds; assemble()
// turns it into a PackageRecord, applying the rules shared by all formats.
type rawManifest struct {
	Name         string
	Version      string
	Dependencies []rawDependency
	Modules      []string
	Main         map[string]MainEntry
}

const defaultConstraint = ">=0.0.0"

func assemble(source string, raw rawManifest) (string, PackageRecord, error) {
	if raw.Name == "" {
		return "", PackageRecord{}, &errs.MissingField{Source: source, Field: "name"}
	}

	ver := version.Version{}
	if raw.Version != "" {
		v, err := version.Parse(raw.Version)
		if err != nil {
			return "", PackageRecord{}, &errs.ParseError{Source: source, Reason: "version: " + err.Error()}
		}
		ver = v
	}

	rec := PackageRecord{
		ID:           raw.Name,
		Version:      ver,
		Dependencies: map[string]version.Constraint{},
		SystemDeps:   map[string]version.Constraint{},
		Modules:      raw.Modules,
		Main:         raw.Main,
	}

	for _, d := range raw.Dependencies {
		constraintStr := d.Constraint
		if constraintStr == "" {
			constraintStr = defaultConstraint
		} else if !hasOperatorPrefix(constraintStr) {
			// A bare version literal (no leading operator) is treated as an
			// exact-match constraint, matching the spec's rule for
			// system_deps constraint strings generalized to all dependency
			// constraints parsed from attribute-style manifest formats.
			constraintStr = "=" + constraintStr
		}
		c, err := version.ParseConstraint(constraintStr)
		if err != nil {
			return "", PackageRecord{}, &errs.ParseError{Source: source, Reason: "dependency " + d.Name + ": " + err.Error()}
		}
		if strings.HasPrefix(d.Name, systemPrefix) {
			rec.SystemDeps[d.Name[len(systemPrefix):]] = c
		} else {
			rec.Dependencies[d.Name] = c
		}
	}

	return rec.ID, rec, nil
}

// Parse dispatches to the format-specific decoder based on path's basename
// (package.json / package.xml / package.yaml) and assembles a PackageRecord.
func Parse(path string) (string, PackageRecord, error) {
	switch filepath.Base(path) {
	case "package.json":
		return parseJSON(path)
	case "package.xml":
		return parseXML(path)
	case "package.yaml", "package.yml":
		return parseYAML(path)
	default:
		return "", PackageRecord{}, &errs.ParseError{Source: path, Reason: "unrecognized manifest filename"}
	}
}

// FindManifest returns the manifest path in dir, trying each recognized
// filename in turn. Returns "" if none exists.
func FindManifest(dir string) string {
	for _, name := range []string{"package.json", "package.xml", "package.yaml", "package.yml"} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

var operatorPrefixes = []string{">=", "<=", "^", "~", ">", "<", "="}

func hasOperatorPrefix(s string) bool {
	for _, op := range operatorPrefixes {
		if strings.HasPrefix(s, op) {
			return true
		}
	}
	return false
}
