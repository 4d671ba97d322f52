// Package config loads loom.toml, the project manifest that names the
// package and tunes the binder.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the parsed project manifest.
type Config struct {
	Package PackageConfig `toml:"package"`
	Bind    BindConfig    `toml:"bind"`
}

// PackageConfig identifies the project.
type PackageConfig struct {
	Name string `toml:"name"`
}

// BindConfig tunes the binder and the incremental-build plumbing.
type BindConfig struct {
	// Units lists unit manifests relative to the project root, in binding
	// order.
	Units []string `toml:"units"`
	// HandleIndex is the path of the persisted reference-handle index,
	// relative to the project root.
	HandleIndex string `toml:"handle_index"`
	// LateLowering splits deferred-initialization fields into synthetic
	// slots.
	LateLowering bool `toml:"late_lowering"`
	// MaxDiagnostics caps how many diagnostics each unit accumulates.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Project couples a parsed manifest with where it was found.
type Project struct {
	Path   string // manifest file
	Root   string // directory containing it
	Config Config
}

const (
	defaultHandleIndex    = ".loom/handles.idx"
	defaultMaxDiagnostics = 100
)

// FindLoomToml walks up from startDir to locate loom.toml.
func FindLoomToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "loom.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadProject locates and parses the nearest manifest above startDir.
func LoadProject(startDir string) (*Project, bool, error) {
	path, ok, err := FindLoomToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return &Project{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// Load parses a manifest file and applies defaults. [package].name is the
// only required key.
func Load(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("bind", "late_lowering") {
		cfg.Bind.LateLowering = true
	}
	if cfg.Bind.HandleIndex == "" {
		cfg.Bind.HandleIndex = defaultHandleIndex
	}
	if cfg.Bind.MaxDiagnostics <= 0 {
		cfg.Bind.MaxDiagnostics = defaultMaxDiagnostics
	}
	return cfg, nil
}

// UnitPaths resolves the configured unit manifests against the project root.
func (p *Project) UnitPaths() []string {
	paths := make([]string, 0, len(p.Config.Bind.Units))
	for _, rel := range p.Config.Bind.Units {
		paths = append(paths, filepath.Join(p.Root, filepath.FromSlash(rel)))
	}
	return paths
}

// HandleIndexPath resolves the handle-index location against the project root.
func (p *Project) HandleIndexPath() string {
	return filepath.Join(p.Root, filepath.FromSlash(p.Config.Bind.HandleIndex))
}
