package sandbox

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/lithiumaddons/core/errs"
)

// Multi manages a keyed set of Single sandboxes, running them concurrently
// with bounded parallelism.
type Multi struct {
	mu       sync.Mutex
	sandboxes map[string]*Single
	sem      *semaphore.Weighted
}

// NewMulti constructs a Multi that runs up to concurrency sandboxes at
// once.
func NewMulti(concurrency int64) *Multi {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Multi{
		sandboxes: map[string]*Single{},
		sem:       semaphore.NewWeighted(concurrency),
	}
}

// Add registers a sandbox under name.
func (m *Multi) Add(name string, spec Spec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sandboxes[name] = NewSingle(spec)
}

// Get returns the sandbox registered under name.
func (m *Multi) Get(name string) (*Single, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sandboxes[name]
	if !ok {
		return nil, &errs.UnknownComponent{Name: name}
	}
	return s, nil
}

// RunResult pairs a sandbox name with its run outcome.
type RunResult struct {
	Name string
	OK   bool
	Err  error
}

// RunAll launches every registered sandbox and waits for all to finish.
// Per-sandbox errors are isolated: one sandbox's failure does not prevent
// the others from running or being reported.
func (m *Multi) RunAll(ctx context.Context) []RunResult {
	m.mu.Lock()
	names := make([]string, 0, len(m.sandboxes))
	boxes := make([]*Single, 0, len(m.sandboxes))
	for name, s := range m.sandboxes {
		names = append(names, name)
		boxes = append(boxes, s)
	}
	m.mu.Unlock()

	results := make([]RunResult, len(names))
	var wg sync.WaitGroup
	for i := range names {
		i := i
		wg.Add(1)
		if err := m.sem.Acquire(ctx, 1); err != nil {
			results[i] = RunResult{Name: names[i], Err: err}
			wg.Done()
			continue
		}
		go func() {
			defer wg.Done()
			defer m.sem.Release(1)
			ok, err := boxes[i].Run(ctx)
			results[i] = RunResult{Name: names[i], OK: ok, Err: err}
		}()
	}
	wg.Wait()
	return results
}
