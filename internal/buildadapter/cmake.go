package buildadapter

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// CMake implements Adapter for the CMake build system.
type CMake struct {
	Log    *log.Logger
	config Config
}

func NewCMake(logger *log.Logger) *CMake { return &CMake{Log: logger} }

func (c *CMake) Configure(ctx context.Context, sourceDir, buildDir string, buildType BuildType, options []string, envVars map[string]string) BuildResult {
	argv := []string{"cmake", "-S", sourceDir, "-B", buildDir}
	switch buildType {
	case Debug:
		argv = append(argv, "-DCMAKE_BUILD_TYPE=Debug")
	case Release:
		argv = append(argv, "-DCMAKE_BUILD_TYPE=Release")
	case RelWithDebInfo:
		argv = append(argv, "-DCMAKE_BUILD_TYPE=RelWithDebInfo")
	case MinSizeRel:
		argv = append(argv, "-DCMAKE_BUILD_TYPE=MinSizeRel")
	}
	argv = append(argv, options...)
	return run(ctx, c.Log, argv, envVars)
}

func (c *CMake) Build(ctx context.Context, buildDir string, jobs *int) BuildResult {
	argv := []string{"cmake", "--build", buildDir}
	if jobs != nil {
		argv = append(argv, "--", "-j"+strconv.Itoa(*jobs))
	}
	return run(ctx, c.Log, argv, nil)
}

// Clean implements CMake's clean as recursive deletion of the build
// directory, per spec.md §4.5 ("adapter A implements this as recursive
// deletion of the build directory").
func (c *CMake) Clean(ctx context.Context, buildDir string) BuildResult {
	if err := os.RemoveAll(buildDir); err != nil {
		return BuildResult{Success: false, Message: err.Error(), ExitCode: -1}
	}
	return BuildResult{Success: true, Message: "cmake clean succeeded", ExitCode: 0}
}

func (c *CMake) Install(ctx context.Context, buildDir, installDir string) BuildResult {
	return run(ctx, c.Log, []string{"cmake", "--install", buildDir, "--prefix", installDir}, nil)
}

func (c *CMake) RunTests(ctx context.Context, buildDir string, testFilters []string) BuildResult {
	argv := []string{"ctest", "--test-dir", buildDir}
	for _, f := range testFilters {
		argv = append(argv, "-R", f)
	}
	return run(ctx, c.Log, argv, nil)
}

func (c *CMake) GenerateDocs(ctx context.Context, buildDir, outputDir string) BuildResult {
	return run(ctx, c.Log, []string{"doxygen", buildDir + "/Doxyfile"}, nil)
}

// ListTargets parses `cmake --build <dir> --target help`'s listing: lines
// after the "valid targets" banner, up to the trailing "..." line.
func (c *CMake) ListTargets(ctx context.Context, buildDir string) ([]string, error) {
	res := run(ctx, c.Log, []string{"cmake", "--build", buildDir, "--target", "help"}, nil)
	return parseCMakeHelpTargets(res.Message), nil
}

// parseCMakeHelpTargets extracts target names from `cmake --build --target
// help`'s banner-delimited listing.
func parseCMakeHelpTargets(output string) []string {
	var targets []string
	startParsing := false
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "The following are some of the valid targets") {
			startParsing = true
			continue
		}
		if !startParsing {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "..." {
			break
		}
		name, _, _ := strings.Cut(strings.TrimPrefix(line, "... "), " ")
		if name != "" {
			targets = append(targets, name)
		}
	}
	return targets
}

func (c *CMake) BuildTarget(ctx context.Context, buildDir, target string, jobs *int) BuildResult {
	argv := []string{"cmake", "--build", buildDir, "--target", target}
	if jobs != nil {
		argv = append(argv, "--", "-j"+strconv.Itoa(*jobs))
	}
	return run(ctx, c.Log, argv, nil)
}

// GetCacheVariables parses CMakeCache.txt's "NAME:TYPE=VALUE" lines.
func (c *CMake) GetCacheVariables(buildDir string) ([][2]string, error) {
	f, err := os.Open(buildDir + "/CMakeCache.txt")
	if err != nil {
		return nil, nil // no cache yet; not configured is not an error here
	}
	defer f.Close()

	var vars [][2]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		nameType, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(nameType, ":")
		vars = append(vars, [2]string{name, value})
	}
	return vars, nil
}

func (c *CMake) SetCacheVariable(ctx context.Context, buildDir, name, value string) bool {
	res := run(ctx, c.Log, []string{"cmake", "-S", buildDir, "-B", buildDir, fmt.Sprintf("-D%s=%s", name, value)}, nil)
	return res.Success
}

func (c *CMake) LoadConfig(path string) bool {
	cfg, ok := loadConfigFile(c.Log, path)
	if ok {
		c.config = cfg
	}
	return ok
}
