package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "loom.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Package.Name != "demo" {
		t.Fatalf("name = %q", cfg.Package.Name)
	}
	if !cfg.Bind.LateLowering {
		t.Fatalf("late lowering should default to enabled")
	}
	if cfg.Bind.HandleIndex != defaultHandleIndex {
		t.Fatalf("handle index = %q", cfg.Bind.HandleIndex)
	}
	if cfg.Bind.MaxDiagnostics != defaultMaxDiagnostics {
		t.Fatalf("max diagnostics = %d", cfg.Bind.MaxDiagnostics)
	}
}

func TestLoadExplicitBindSection(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"

[bind]
units = ["src/app.toml", "src/lib.toml"]
late_lowering = false
max_diagnostics = 7
handle_index = "out/handles.idx"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bind.LateLowering {
		t.Fatalf("late lowering should stay disabled when set explicitly")
	}
	if len(cfg.Bind.Units) != 2 || cfg.Bind.Units[0] != "src/app.toml" {
		t.Fatalf("units = %v", cfg.Bind.Units)
	}
	if cfg.Bind.MaxDiagnostics != 7 {
		t.Fatalf("max diagnostics = %d", cfg.Bind.MaxDiagnostics)
	}
}

func TestLoadMissingPackageName(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("missing [package].name must fail")
	}
}

func TestFindLoomTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := FindLoomToml(nested)
	if err != nil || !ok {
		t.Fatalf("FindLoomToml: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %q, want manifest in %q", path, root)
	}
}

func TestFindLoomTomlAbsent(t *testing.T) {
	_, ok, err := FindLoomToml(t.TempDir())
	if err != nil {
		t.Fatalf("FindLoomToml: %v", err)
	}
	if ok {
		t.Fatalf("no manifest should be found in an empty tree")
	}
}
