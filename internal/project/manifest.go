package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file looked up from the target directory upwards.
const ManifestName = "wscheck.toml"

// Manifest is a located and decoded wscheck.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
	Digest Digest
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Check   CheckConfig   `toml:"check"`
	Cache   CacheConfig   `toml:"cache"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type CheckConfig struct {
	MaxDiagnostics   int  `toml:"max_diagnostics"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Find walks up from startDir looking for wscheck.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
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

// Discover finds and loads the manifest governing startDir. ok is false when
// there is none.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Decode(path, string(raw))
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
		Digest: Sum(raw),
	}, nil
}

// Decode parses manifest text; path is only used in error messages.
func Decode(path, text string) (Config, error) {
	var cfg Config
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if cfg.Check.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [check].max_diagnostics must not be negative", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	return b.String(), nil
}

// Default is the configuration `wscheck init` writes.
func Default(name string) Config {
	return Config{
		Package: PackageConfig{Name: name},
		Check:   CheckConfig{MaxDiagnostics: 0},
		Cache:   CacheConfig{Enabled: true},
	}
}

// CacheDir resolves the configured cache directory against the manifest root.
func (m *Manifest) CacheDir() string {
	if m == nil || m.Config.Cache.Dir == "" {
		return ""
	}
	if filepath.IsAbs(m.Config.Cache.Dir) {
		return m.Config.Cache.Dir
	}
	return filepath.Join(m.Root, m.Config.Cache.Dir)
}
