package buildadapter

import (
	"context"
	"log"
	"strconv"
	"strings"
)

// XMake implements Adapter for the xmake build system.
type XMake struct {
	Log    *log.Logger
	config Config
}

func NewXMake(logger *log.Logger) *XMake { return &XMake{Log: logger} }

func (x *XMake) Configure(ctx context.Context, sourceDir, buildDir string, buildType BuildType, options []string, envVars map[string]string) BuildResult {
	argv := []string{"xmake", "project", "-k", buildDir, "-m", sourceDir}
	switch buildType {
	case Debug:
		argv = append(argv, "-t", "debug")
	case Release:
		argv = append(argv, "-t", "release")
	case RelWithDebInfo:
		argv = append(argv, "-t", "debugoptimized")
	case MinSizeRel:
		argv = append(argv, "-t", "release", "-s")
	}
	argv = append(argv, options...)
	return run(ctx, x.Log, argv, envVars)
}

func (x *XMake) Build(ctx context.Context, buildDir string, jobs *int) BuildResult {
	argv := []string{"xmake", "-C", buildDir}
	if jobs != nil {
		argv = append(argv, "-j", strconv.Itoa(*jobs))
	}
	return run(ctx, x.Log, argv, nil)
}

func (x *XMake) Clean(ctx context.Context, buildDir string) BuildResult {
	return run(ctx, x.Log, []string{"xmake", "clean", "-C", buildDir}, nil)
}

func (x *XMake) Install(ctx context.Context, buildDir, installDir string) BuildResult {
	return run(ctx, x.Log, []string{"xmake", "install", "-C", buildDir, "--install-dir", installDir}, nil)
}

func (x *XMake) RunTests(ctx context.Context, buildDir string, testFilters []string) BuildResult {
	argv := []string{"xmake", "run", "unittest", "-C", buildDir}
	argv = append(argv, testFilters...)
	return run(ctx, x.Log, argv, nil)
}

func (x *XMake) GenerateDocs(ctx context.Context, buildDir, outputDir string) BuildResult {
	return run(ctx, x.Log, []string{"doxygen", buildDir + "/Doxyfile"}, nil)
}

// ListTargets parses `xmake show -l`'s line-per-target listing.
func (x *XMake) ListTargets(ctx context.Context, buildDir string) ([]string, error) {
	res := run(ctx, x.Log, []string{"xmake", "show", "-l", "-C", buildDir}, nil)
	var targets []string
	for _, line := range strings.Split(res.Message, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			targets = append(targets, line)
		}
	}
	return targets, nil
}

func (x *XMake) BuildTarget(ctx context.Context, buildDir, target string, jobs *int) BuildResult {
	argv := []string{"xmake", "build", target, "-C", buildDir}
	if jobs != nil {
		argv = append(argv, "-j", strconv.Itoa(*jobs))
	}
	return run(ctx, x.Log, argv, nil)
}

// GetCacheVariables parses `xmake show -v`'s "key value" listing.
func (x *XMake) GetCacheVariables(buildDir string) ([][2]string, error) {
	res := run(context.Background(), x.Log, []string{"xmake", "show", "-v", "-C", buildDir}, nil)
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

func (x *XMake) SetCacheVariable(ctx context.Context, buildDir, name, value string) bool {
	res := run(ctx, x.Log, []string{"xmake", "f", "--" + name + "=" + value, "-C", buildDir}, nil)
	return res.Success
}

func (x *XMake) LoadConfig(path string) bool {
	cfg, ok := loadConfigFile(x.Log, path)
	if ok {
		x.config = cfg
	}
	return ok
}
