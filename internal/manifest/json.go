package manifest

import (
	"encoding/json"
	"os"

	"github.com/lithiumaddons/core/errs"
)

type jsonMain struct {
	FuncName      string `json:"m_func_name"`
	ComponentType string `json:"m_component_type"`
}

type jsonManifest struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Dependencies map[string]string   `json:"dependencies"`
	Modules      []string            `json:"modules"`
	Main         map[string]jsonMain `json:"main"`
}

func parseJSON(path string) (string, PackageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", PackageRecord{}, &errs.IoError{Op: "read", Path: path, Err: err}
	}

	var jm jsonManifest
	if err := json.Unmarshal(data, &jm); err != nil {
		return "", PackageRecord{}, &errs.ParseError{Source: path, Reason: err.Error()}
	}

	raw := rawManifest{
		Name:    jm.Name,
		Version: jm.Version,
		Modules: jm.Modules,
		Main:    map[string]MainEntry{},
	}
	for name, constraint := range jm.Dependencies {
		raw.Dependencies = append(raw.Dependencies, rawDependency{Name: name, Constraint: constraint})
	}
	for name, m := range jm.Main {
		raw.Main[name] = MainEntry{FuncName: m.FuncName, ComponentType: m.ComponentType}
	}

	return assemble(path, raw)
}
