package buildadapter

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// Meson implements Adapter for the Meson build system.
type Meson struct {
	Log    *log.Logger
	config Config
}

func NewMeson(logger *log.Logger) *Meson { return &Meson{Log: logger} }

func (m *Meson) Configure(ctx context.Context, sourceDir, buildDir string, buildType BuildType, options []string, envVars map[string]string) BuildResult {
	argv := []string{"meson", "setup", buildDir, sourceDir}
	switch buildType {
	case Debug:
		argv = append(argv, "--buildtype=debug")
	case Release:
		argv = append(argv, "--buildtype=release")
	case RelWithDebInfo:
		argv = append(argv, "--buildtype=debugoptimized")
	case MinSizeRel:
		argv = append(argv, "--buildtype=release", "--strip")
	}
	argv = append(argv, options...)
	return run(ctx, m.Log, argv, envVars)
}

func (m *Meson) Build(ctx context.Context, buildDir string, jobs *int) BuildResult {
	argv := []string{"meson", "compile", "-C", buildDir}
	if jobs != nil {
		argv = append(argv, "-j"+strconv.Itoa(*jobs))
	}
	return run(ctx, m.Log, argv, nil)
}

func (m *Meson) Clean(ctx context.Context, buildDir string) BuildResult {
	return run(ctx, m.Log, []string{"meson", "compile", "-C", buildDir, "--clean"}, nil)
}

func (m *Meson) Install(ctx context.Context, buildDir, installDir string) BuildResult {
	return run(ctx, m.Log, []string{"meson", "install", "-C", buildDir, "--destdir", installDir}, nil)
}

func (m *Meson) RunTests(ctx context.Context, buildDir string, testFilters []string) BuildResult {
	argv := []string{"meson", "test", "-C", buildDir}
	for _, f := range testFilters {
		argv = append(argv, "-t", f)
	}
	return run(ctx, m.Log, argv, nil)
}

func (m *Meson) GenerateDocs(ctx context.Context, buildDir, outputDir string) BuildResult {
	return run(ctx, m.Log, []string{"sphinx-build", "-b", "html", buildDir + "/docs", outputDir}, nil)
}

type mesonTarget struct {
	Name string `json:"name"`
}

// ListTargets parses `meson introspect --targets`'s JSON array.
func (m *Meson) ListTargets(ctx context.Context, buildDir string) ([]string, error) {
	res := run(ctx, m.Log, []string{"meson", "introspect", "--targets", "-C", buildDir}, nil)
	var parsed []mesonTarget
	if err := json.Unmarshal([]byte(res.Message), &parsed); err != nil {
		if m.Log != nil {
			m.Log.Printf("failed to parse meson targets: %v", err)
		}
		return nil, nil
	}
	targets := make([]string, 0, len(parsed))
	for _, t := range parsed {
		targets = append(targets, t.Name)
	}
	return targets, nil
}

func (m *Meson) BuildTarget(ctx context.Context, buildDir, target string, jobs *int) BuildResult {
	argv := []string{"meson", "compile", "-C", buildDir, target}
	if jobs != nil {
		argv = append(argv, "-j"+strconv.Itoa(*jobs))
	}
	return run(ctx, m.Log, argv, nil)
}

// GetCacheVariables parses `meson configure`'s tabular listing, taking the
// first two whitespace-separated columns (name, current value) of each
// non-header line.
func (m *Meson) GetCacheVariables(buildDir string) ([][2]string, error) {
	res := run(context.Background(), m.Log, []string{"meson", "configure", "-C", buildDir}, nil)
	var vars [][2]string
	for _, line := range strings.Split(res.Message, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		vars = append(vars, [2]string{fields[0], fields[1]})
	}
	return vars, nil
}

func (m *Meson) SetCacheVariable(ctx context.Context, buildDir, name, value string) bool {
	res := run(ctx, m.Log, []string{"meson", "configure", buildDir, "-D" + name + "=" + value}, nil)
	return res.Success
}

func (m *Meson) LoadConfig(path string) bool {
	cfg, ok := loadConfigFile(m.Log, path)
	if ok {
		m.config = cfg
	}
	return ok
}
