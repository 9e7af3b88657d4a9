package manifest

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lithiumaddons/core/errs"
)

type yamlMain struct {
	FuncName      string `yaml:"m_func_name"`
	ComponentType string `yaml:"m_component_type"`
}

type yamlManifest struct {
	Name         string              `yaml:"name"`
	Version      string              `yaml:"version"`
	Dependencies map[string]string   `yaml:"dependencies"`
	Modules      []string            `yaml:"modules"`
	Main         map[string]yamlMain `yaml:"main"`
}

func parseYAML(path string) (string, PackageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", PackageRecord{}, &errs.IoError{Op: "read", Path: path, Err: err}
	}

	var ym yamlManifest
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return "", PackageRecord{}, &errs.ParseError{Source: path, Reason: err.Error()}
	}

	raw := rawManifest{
		Name:    ym.Name,
		Version: ym.Version,
		Modules: ym.Modules,
		Main:    map[string]MainEntry{},
	}
	for name, constraint := range ym.Dependencies {
		raw.Dependencies = append(raw.Dependencies, rawDependency{Name: name, Constraint: constraint})
	}
	for name, m := range ym.Main {
		raw.Main[name] = MainEntry{FuncName: m.FuncName, ComponentType: m.ComponentType}
	}

	return assemble(path, raw)
}
