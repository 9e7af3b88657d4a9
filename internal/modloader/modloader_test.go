package modloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lithiumaddons/core/errs"
)

func TestLoadOfMissingFileFails(t *testing.T) {
	l := New()
	if err := l.Load("bogus", "/nonexistent/path.so"); err == nil {
		t.Error("Load of a missing plugin file should fail")
	}
}

func TestUnloadUnknownFails(t *testing.T) {
	l := New()
	if err := l.Unload("nope"); err == nil {
		t.Error("Unload of an unregistered module should fail")
	}
}

func TestHasReflectsRegistry(t *testing.T) {
	l := New()
	if l.Has("anything") {
		t.Error("empty loader should report Has == false")
	}
}

func TestEnableDisableUnknownFails(t *testing.T) {
	l := New()
	if err := l.Enable("x"); err == nil {
		t.Error("Enable on unregistered module should fail")
	}
	if err := l.Disable("x"); err == nil {
		t.Error("Disable on unregistered module should fail")
	}
	if _, err := l.IsEnabled("x"); err == nil {
		t.Error("IsEnabled on unregistered module should fail")
	}
}

func TestGetUnknownFails(t *testing.T) {
	l := New()
	if _, err := l.Get("x"); err == nil {
		t.Error("Get on unregistered module should fail")
	}
}

// TestLoadDuplicateIsRejected exercises the registry's uniqueness
// invariant directly, bypassing the real plugin.Open call by inserting
// into the module table via a second manual registration attempt against
// an already-populated name.
func TestLoadDuplicateIsRejected(t *testing.T) {
	l := New()
	l.modules["fake"] = &Module{Name: "fake", Path: "/fake.so", Enabled: true}
	err := l.Load("fake", "/another/path.so")
	var dup *errs.Duplicate
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "module", dup.Kind)
	assert.Equal(t, "fake", dup.Name)
}

func TestUnloadAllClearsRegistryAndInstances(t *testing.T) {
	l := New()
	l.modules["fake"] = &Module{Name: "fake", Path: "/fake.so", Enabled: true}
	l.instances.Store("fake/NewThing", 42)

	l.UnloadAll()

	if l.Has("fake") {
		t.Error("UnloadAll should clear the module table")
	}
	if _, ok := l.instances.Load("fake/NewThing"); ok {
		t.Error("UnloadAll should clear the instance cache")
	}
}

func TestUnloadClearsOnlyThatModulesInstances(t *testing.T) {
	l := New()
	l.modules["a"] = &Module{Name: "a", Path: "/a.so", Enabled: true}
	l.modules["b"] = &Module{Name: "b", Path: "/b.so", Enabled: true}
	l.instances.Store("a/NewThing", 1)
	l.instances.Store("b/NewThing", 2)

	if err := l.Unload("a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.instances.Load("a/NewThing"); ok {
		t.Error("Unload(a) should evict a's cached instances")
	}
	if _, ok := l.instances.Load("b/NewThing"); !ok {
		t.Error("Unload(a) should not evict b's cached instances")
	}
}

func TestRegisterBuiltinMakesInstanceRetrievable(t *testing.T) {
	l := New()
	type widget struct{ n int }
	require.NoError(t, l.RegisterBuiltin("builtin-widget", "NewWidget", &widget{n: 7}))
	assert.True(t, l.Has("builtin-widget"), "RegisterBuiltin should register the module name")

	got, err := GetInstance[*widget](l, "builtin-widget", "NewWidget", nil)
	require.NoError(t, err)
	assert.Equal(t, &widget{n: 7}, got)
}

func TestRegisterBuiltinDuplicateFails(t *testing.T) {
	l := New()
	if err := l.RegisterBuiltin("dup", "F", 1); err != nil {
		t.Fatal(err)
	}
	if err := l.RegisterBuiltin("dup", "F", 2); err == nil {
		t.Error("RegisterBuiltin of an already-registered name should fail")
	}
}

func TestHasFunctionOnUnknownModuleIsFalse(t *testing.T) {
	l := New()
	if l.HasFunction("nope", "Anything") {
		t.Error("HasFunction on an unregistered module should be false, not panic")
	}
}

func TestConfigPathForReplacesExtension(t *testing.T) {
	assert.Equal(t, "/mods/foo.json", configPathFor("/mods/foo.so"))
	assert.Equal(t, "/mods/foo.json", configPathFor("/mods/foo.dylib"))
	assert.Equal(t, "noext.json", configPathFor("noext"))
}

func TestLoadConfigMissingFileWarnsNotFails(t *testing.T) {
	meta := loadConfig(filepath.Join(t.TempDir(), "ghost.so"))
	assert.Nil(t, meta.config)
	assert.Empty(t, meta.description)
}

func TestLoadConfigMalformedJSONWarnsNotFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.so")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.json"), []byte("{not json"), 0o644))
	meta := loadConfig(path)
	assert.Nil(t, meta.config)
}

func TestLoadConfigReadsMetadataFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.so")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.json"), []byte(
		`{"description":"a widget","version":"1.2.3","type":"standalone","author":"me","license":"MIT"}`,
	), 0o644))

	meta := loadConfig(path)
	assert.Equal(t, "a widget", meta.description)
	assert.Equal(t, "1.2.3", meta.version)
	assert.Equal(t, "standalone", meta.kind)
	assert.Equal(t, "me", meta.author)
	assert.Equal(t, "MIT", meta.license)
	assert.Equal(t, filepath.Join(dir, "mod.json"), meta.configPath)
}

// TestGetInstanceConfigParamIgnoredForCachedBuiltins confirms the config
// argument only matters on the factory-invocation path: a RegisterBuiltin
// instance is returned from cache untouched, regardless of what config is
// passed alongside it.
func TestGetInstanceConfigParamIgnoredForCachedBuiltins(t *testing.T) {
	l := New()
	type widget struct{ n int }
	require.NoError(t, l.RegisterBuiltin("configured-widget", "NewWidget", &widget{n: 3}))

	got, err := GetInstance[*widget](l, "configured-widget", "NewWidget", map[string]any{"ignored": true})
	require.NoError(t, err)
	assert.Equal(t, &widget{n: 3}, got)
}
