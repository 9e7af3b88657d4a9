package manifest

import (
	"encoding/xml"
	"os"

	"github.com/lithiumaddons/core/errs"
)

type xmlDepend struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`
}

type xmlModule struct {
	Name string `xml:",chardata"`
}

type xmlMain struct {
	Name          string `xml:"name,attr"`
	FuncName      string `xml:"func,attr"`
	ComponentType string `xml:"type,attr"`
}

type xmlManifest struct {
	XMLName xml.Name    `xml:"package"`
	Name    string      `xml:"name"`
	Version string      `xml:"version"`
	Depends []xmlDepend `xml:"depend"`
	Modules []xmlModule `xml:"module"`
	Mains   []xmlMain   `xml:"main"`
}

func parseXML(path string) (string, PackageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", PackageRecord{}, &errs.IoError{Op: "read", Path: path, Err: err}
	}

	var xm xmlManifest
	if err := xml.Unmarshal(data, &xm); err != nil {
		return "", PackageRecord{}, &errs.ParseError{Source: path, Reason: err.Error()}
	}

	raw := rawManifest{
		Name:    xm.Name,
		Version: xm.Version,
		Main:    map[string]MainEntry{},
	}
	for _, d := range xm.Depends {
		raw.Dependencies = append(raw.Dependencies, rawDependency{Name: d.Name, Constraint: d.Version})
	}
	for _, m := range xm.Modules {
		raw.Modules = append(raw.Modules, m.Name)
	}
	for _, m := range xm.Mains {
		raw.Main[m.Name] = MainEntry{FuncName: m.FuncName, ComponentType: m.ComponentType}
	}

	return assemble(path, raw)
}
