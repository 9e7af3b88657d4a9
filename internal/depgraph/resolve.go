package depgraph

import (
	"sort"

	"github.com/lithiumaddons/core/internal/manifest"
	"github.com/lithiumaddons/core/internal/version"
)

// ResolveDirectories parses the manifest in each directory, assembles them
// into a fresh graph, and returns a deduplicated topological order of
// package ids. It returns an empty list if any manifest is malformed, a
// dependency constraint conflicts with a known version, or the resulting
// graph has a cycle.
func ResolveDirectories(dirs []string) []string {
	g := New()

	records := make(map[string]manifest.PackageRecord)
	for _, dir := range dirs {
		path := manifest.FindManifest(dir)
		if path == "" {
			continue
		}
		id, rec, err := manifest.Parse(path)
		if err != nil {
			return nil
		}
		records[id] = rec
		g.AddNode(id, rec.Version)
	}

	for id, rec := range records {
		deps := sortedKeys(rec.Dependencies)
		for _, dep := range deps {
			if err := g.AddEdge(id, dep, rec.Dependencies[dep]); err != nil {
				return nil
			}
		}
	}

	order, ok := g.TopologicalSort()
	if !ok {
		return nil
	}
	return order
}

func sortedKeys(m map[string]version.Constraint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolveSystemDependencies parses the manifest in each directory and joins
// every manifest's system_deps into a single mapping from logical name to
// the most restrictive constraint seen (the one with the highest version
// literal), so a single install/check pass downstream satisfies every
// addon's requirement for that system package.
func ResolveSystemDependencies(dirs []string) map[string]version.Constraint {
	joined := make(map[string]version.Constraint)
	for _, dir := range dirs {
		path := manifest.FindManifest(dir)
		if path == "" {
			continue
		}
		_, rec, err := manifest.Parse(path)
		if err != nil {
			continue
		}
		for name, c := range rec.SystemDeps {
			existing, ok := joined[name]
			if !ok || c.Literal.Greater(existing.Literal) {
				joined[name] = c
			}
		}
	}
	return joined
}
