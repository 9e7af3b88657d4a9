// Package buildorch discovers build projects under a root directory,
// dispatches operations to the correct build adapter, and sequences
// user-defined task chains (spec.md C6).
package buildorch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lithiumaddons/core/internal/buildadapter"
)

// BuildSystem identifies which adapter a project uses.
type BuildSystem int

const (
	UnknownSystem BuildSystem = iota
	CMakeSystem
	MesonSystem
	XMakeSystem
)

// marker files that identify a project's build system, checked in order.
var markers = []struct {
	file   string
	system BuildSystem
}{
	{"CMakeLists.txt", CMakeSystem},
	{"meson.build", MesonSystem},
	{"xmake.lua", XMakeSystem},
}

// ProjectRecord describes one discovered project.
type ProjectRecord struct {
	SourceDir   string
	BuildDir    string
	BuildSystem BuildSystem
}

// BuildTask is a zero-argument operation that produces a BuildResult, run
// as part of a task chain.
type BuildTask func(ctx context.Context) buildadapter.BuildResult

// Orchestrator holds a mutex-protected project registry and an ordered
// list of build tasks, dispatching each project's operations to its
// adapter.
type Orchestrator struct {
	Log *log.Logger

	adapters map[BuildSystem]buildadapter.Adapter

	mu       sync.Mutex
	projects []ProjectRecord
	tasks    []BuildTask

	sem *semaphore.Weighted
}

// New constructs an Orchestrator wired to the three concrete adapters.
// concurrency bounds the number of projects Scan processes at once.
func New(logger *log.Logger, concurrency int64) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Orchestrator{
		Log: logger,
		adapters: map[BuildSystem]buildadapter.Adapter{
			CMakeSystem: buildadapter.NewCMake(logger),
			MesonSystem: buildadapter.NewMeson(logger),
			XMakeSystem: buildadapter.NewXMake(logger),
		},
		sem: semaphore.NewWeighted(concurrency),
	}
}

func detectBuildSystem(dir string) (BuildSystem, bool) {
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			return m.system, true
		}
	}
	return UnknownSystem, false
}

// Scan walks root concurrently; every subdirectory containing a known
// marker file becomes a ProjectRecord. Per-directory failures are logged
// and skipped; the overall scan succeeds regardless.
func (o *Orchestrator) Scan(ctx context.Context, root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			o.Log.Printf("buildorch: scan %s: %v", path, err)
			return nil // skip, scan still succeeds
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		o.Log.Printf("buildorch: walk %s: %v", root, err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, dir := range dirs {
		dir := dir
		if err := o.sem.Acquire(egCtx, 1); err != nil {
			break // context cancelled
		}
		eg.Go(func() error {
			defer o.sem.Release(1)
			system, ok := detectBuildSystem(dir)
			if !ok {
				return nil
			}
			o.AddProject(ProjectRecord{
				SourceDir:   dir,
				BuildDir:    filepath.Join(dir, "build"),
				BuildSystem: system,
			})
			return nil
		})
	}
	return eg.Wait() // errgroup.Wait never actually returns an error here; per-dir failures are logged, not propagated
}

// AddProject appends p to the registry under the registry's mutex.
func (o *Orchestrator) AddProject(p ProjectRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.projects = append(o.projects, p)
}

// Projects returns a snapshot of the current project registry.
func (o *Orchestrator) Projects() []ProjectRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ProjectRecord, len(o.projects))
	copy(out, o.projects)
	return out
}

func (o *Orchestrator) adapterFor(p ProjectRecord) (buildadapter.Adapter, bool) {
	a, ok := o.adapters[p.BuildSystem]
	return a, ok
}

func unknownSystemResult() buildadapter.BuildResult {
	return buildadapter.BuildResult{Success: false, Message: "unknown build system", ExitCode: -1}
}

func (o *Orchestrator) Configure(ctx context.Context, p ProjectRecord, buildType buildadapter.BuildType, options []string, envVars map[string]string) buildadapter.BuildResult {
	a, ok := o.adapterFor(p)
	if !ok {
		return unknownSystemResult()
	}
	return a.Configure(ctx, p.SourceDir, p.BuildDir, buildType, options, envVars)
}

func (o *Orchestrator) Build(ctx context.Context, p ProjectRecord, jobs *int) buildadapter.BuildResult {
	a, ok := o.adapterFor(p)
	if !ok {
		return unknownSystemResult()
	}
	return a.Build(ctx, p.BuildDir, jobs)
}

func (o *Orchestrator) Clean(ctx context.Context, p ProjectRecord) buildadapter.BuildResult {
	a, ok := o.adapterFor(p)
	if !ok {
		return unknownSystemResult()
	}
	return a.Clean(ctx, p.BuildDir)
}

func (o *Orchestrator) Install(ctx context.Context, p ProjectRecord, installDir string) buildadapter.BuildResult {
	a, ok := o.adapterFor(p)
	if !ok {
		return unknownSystemResult()
	}
	return a.Install(ctx, p.BuildDir, installDir)
}

func (o *Orchestrator) RunTests(ctx context.Context, p ProjectRecord, filters []string) buildadapter.BuildResult {
	a, ok := o.adapterFor(p)
	if !ok {
		return unknownSystemResult()
	}
	return a.RunTests(ctx, p.BuildDir, filters)
}

func (o *Orchestrator) GenerateDocs(ctx context.Context, p ProjectRecord, outputDir string) buildadapter.BuildResult {
	a, ok := o.adapterFor(p)
	if !ok {
		return unknownSystemResult()
	}
	return a.GenerateDocs(ctx, p.BuildDir, outputDir)
}

// AddTask appends t to the task chain.
func (o *Orchestrator) AddTask(t BuildTask) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = append(o.tasks, t)
}

// ClearTasks empties the task chain.
func (o *Orchestrator) ClearTasks() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = nil
}

// ExecuteTaskChain runs tasks sequentially; on the first failing task, it
// returns that task's result without running the rest.
func (o *Orchestrator) ExecuteTaskChain(ctx context.Context) buildadapter.BuildResult {
	o.mu.Lock()
	tasks := make([]BuildTask, len(o.tasks))
	copy(tasks, o.tasks)
	o.mu.Unlock()

	for _, task := range tasks {
		res := task(ctx)
		if !res.Success {
			return res
		}
	}
	return buildadapter.BuildResult{Success: true, Message: "task chain completed", ExitCode: 0}
}
