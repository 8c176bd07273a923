package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for unref.
type Config struct {
	// Backend process settings
	Backend BackendConfig `koanf:"backend"`

	// Scan behavior
	Scan ScanConfig `koanf:"scan"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Watch mode settings
	Watch WatchConfig `koanf:"watch"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// BackendConfig describes the language-service process to drive.
type BackendConfig struct {
	Command        string   `koanf:"command"`
	Args           []string `koanf:"args"`
	RequestTimeout int      `koanf:"request_timeout"` // seconds; 0 disables
}

// ScanConfig controls how declarations are evaluated.
type ScanConfig struct {
	MaxDeclsPerFile int      `koanf:"max_decls_per_file"`
	IncludeExported bool     `koanf:"include_exported"`
	ProgressEvery   int      `koanf:"progress_every"`
	GeneratedDirs   []string `koanf:"generated_dirs"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// WatchConfig controls continuous mode.
type WatchConfig struct {
	Debounce int `koanf:"debounce"` // milliseconds
}

// OutputConfig controls where and how the artifact is written.
type OutputConfig struct {
	File  string `koanf:"file"` // empty means stdout
	Color bool   `koanf:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Command:        "tsserver",
			RequestTimeout: 30,
		},
		Scan: ScanConfig{
			MaxDeclsPerFile: 1000,
			IncludeExported: false,
			ProgressEvery:   10,
			GeneratedDirs: []string{
				"node_modules",
				"dist",
				"build",
				"out",
				".git",
			},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.d.ts",
				"*.test.ts",
				"*.test.tsx",
				"*.spec.ts",
			},
			Dirs: []string{
				"node_modules",
				"dist",
				"build",
				"out",
				".git",
				"coverage",
			},
			Gitignore: true,
		},
		Watch: WatchConfig{
			Debounce: 500,
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"unref.toml",
		"unref.yaml",
		"unref.yml",
		"unref.json",
		".unref.toml",
		".unref.yaml",
		".unref.yml",
		".unref.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			cfg, err := Load(name)
			if err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from scanning.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
