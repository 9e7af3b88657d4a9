package component

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lithiumaddons/core/errs"
)

// recordingInstance tracks when Initialize/Destroy ran, appending its name
// to a shared, mutex-protected log so ordering can be asserted.
type recordingInstance struct {
	name string
	log  *orderLog
}

func (r *recordingInstance) Initialize(context.Context) error {
	r.log.record("init:" + r.name)
	return nil
}

func (r *recordingInstance) Destroy(context.Context) error {
	r.log.record("destroy:" + r.name)
	return nil
}

type orderLog struct {
	mu      sync.Mutex
	entries []string
}

func (o *orderLog) record(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, s)
}

func (o *orderLog) indexOf(s string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.entries {
		if e == s {
			return i
		}
	}
	return -1
}

func writeManifest(t *testing.T, dir string, content map[string]any) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// buildChainManager scans a root with components base <- mid <- top
// (top depends on mid, mid depends on base) and registers builtin
// instances for each, without calling Initialize yet.
func buildChainManager(t *testing.T, root string, log *orderLog) *Manager {
	t.Helper()
	writeManifest(t, filepath.Join(root, "base"), map[string]any{
		"name": "base-addon",
		"main": map[string]any{"base": map[string]any{"m_func_name": "NewBase"}},
	})
	writeManifest(t, filepath.Join(root, "mid"), map[string]any{
		"name":         "mid-addon",
		"dependencies": map[string]any{"base": ">=0.0.0"},
		"main":         map[string]any{"mid": map[string]any{"m_func_name": "NewMid"}},
	})
	writeManifest(t, filepath.Join(root, "top"), map[string]any{
		"name":         "top-addon",
		"dependencies": map[string]any{"mid": ">=0.0.0"},
		"main":         map[string]any{"top": map[string]any{"m_func_name": "NewTop"}},
	})

	m := New(nil, root)
	if _, err := m.Scan(root); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"base", "mid", "top"} {
		inst := &recordingInstance{name: name, log: log}
		funcName := map[string]string{"base": "NewBase", "mid": "NewMid", "top": "NewTop"}[name]
		if err := m.loader.RegisterBuiltin(name, funcName, Instance(inst)); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

// TestP6LoadOrdering establishes P6: every transitive dependency's
// Initialize returns before the dependent's Initialize is invoked.
func TestP6LoadOrdering(t *testing.T) {
	log := &orderLog{}
	m := buildChainManager(t, t.TempDir(), log)

	if err := m.LoadComponent(context.Background(), "top"); err != nil {
		t.Fatal(err)
	}

	base := log.indexOf("init:base")
	mid := log.indexOf("init:mid")
	top := log.indexOf("init:top")
	if base == -1 || mid == -1 || top == -1 {
		t.Fatalf("missing init entries: %v", log.entries)
	}
	if !(base < mid && mid < top) {
		t.Errorf("init order = %v, want base before mid before top", log.entries)
	}
}

func TestUnloadSafetyFailsWithInUseUnlessForced(t *testing.T) {
	log := &orderLog{}
	m := buildChainManager(t, t.TempDir(), log)
	ctx := context.Background()
	if err := m.LoadComponent(ctx, "top"); err != nil {
		t.Fatal(err)
	}

	if err := m.UnloadComponent(ctx, "base", false); err == nil {
		t.Error("unloading a dependency still in use should fail")
	}
	if err := m.UnloadComponent(ctx, "base", true); err != nil {
		t.Errorf("forced unload should succeed, got %v", err)
	}
}

func TestUnloadThenReloadRebuildsInstance(t *testing.T) {
	log := &orderLog{}
	m := buildChainManager(t, t.TempDir(), log)
	ctx := context.Background()
	if err := m.LoadComponent(ctx, "base"); err != nil {
		t.Fatal(err)
	}
	if err := m.UnloadComponent(ctx, "base", false); err != nil {
		t.Fatal(err)
	}
	if log.indexOf("destroy:base") == -1 {
		t.Error("unload should have invoked Destroy")
	}
	if m.Has("base") {
		t.Error("base should no longer be running after unload")
	}
}

func TestScanDiscoversDeclaredComponents(t *testing.T) {
	log := &orderLog{}
	root := t.TempDir()
	m := buildChainManager(t, root, log)
	names, err := m.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	for _, want := range []string{"base", "mid", "top"} {
		if !found[want] {
			t.Errorf("Scan missed component %q, got %v", want, names)
		}
	}
}

func TestSavePackageLockWritesTopologicalOrder(t *testing.T) {
	log := &orderLog{}
	root := t.TempDir()
	m := buildChainManager(t, root, log)

	lockPath := filepath.Join(t.TempDir(), "lock.json")
	require.NoError(t, m.SavePackageLock(lockPath))
	data, err := os.ReadFile(lockPath)
	require.NoError(t, err)

	var parsed map[string]lockEntry
	require.NoError(t, json.Unmarshal(data, &parsed))
	require.Contains(t, parsed, "base")
	require.Contains(t, parsed, "mid")
	require.Contains(t, parsed, "top")
	assert.Empty(t, parsed["base"].Dependencies)
	assert.Equal(t, []lockDep{{Name: "base"}}, parsed["mid"].Dependencies)
	assert.Equal(t, []lockDep{{Name: "mid"}}, parsed["top"].Dependencies)
}

func TestLoadUnknownComponentFails(t *testing.T) {
	m := New(nil, t.TempDir())
	err := m.LoadComponent(context.Background(), "ghost")
	var unknown *errs.UnknownComponent
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Name)
}

func TestGetInfoReturnsScannedManifest(t *testing.T) {
	log := &orderLog{}
	root := t.TempDir()
	m := buildChainManager(t, root, log)

	rec, ok := m.GetInfo("mid")
	require.True(t, ok)
	assert.Equal(t, "mid-addon", rec.ID)
	assert.Contains(t, rec.Dependencies, "base")

	_, ok = m.GetInfo("nonexistent")
	assert.False(t, ok)
}

func TestDocOnlyAnswersForLoadedComponents(t *testing.T) {
	log := &orderLog{}
	root := t.TempDir()
	m := buildChainManager(t, root, log)

	_, ok := m.Doc("base")
	assert.False(t, ok, "Doc should report false before the component is loaded")

	require.NoError(t, m.LoadComponent(context.Background(), "base"))
	_, ok = m.Doc("base")
	assert.True(t, ok, "Doc should answer once the component is loaded, even with an empty description")
}

func TestCheckComponentRejectsMissingArtifact(t *testing.T) {
	root := t.TempDir()
	addonDir := filepath.Join(root, "broken")
	writeManifest(t, addonDir, map[string]any{"name": "broken-addon"})

	err := checkComponent(addonDir, filepath.Join(addonDir, "broken"+platformExt()), "NewBroken")
	var ioErr *errs.IoError
	require.ErrorAs(t, err, &ioErr)
}

func TestCheckComponentRejectsMissingFuncName(t *testing.T) {
	root := t.TempDir()
	addonDir := filepath.Join(root, "nofunc")
	writeManifest(t, addonDir, map[string]any{"name": "nofunc-addon"})

	err := checkComponent(addonDir, addonDir, "")
	var missing *errs.MissingField
	require.ErrorAs(t, err, &missing)
}
