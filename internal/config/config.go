package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvRoot        = "TASKTRACK_ROOT"
	FileName       = "config.yaml"
	StoreFileName  = "tasks.json"
	defaultRootDir = ".tasktrack"
)

// Config is the optional config.yaml under the root directory.
type Config struct {
	// Store is the task file. Relative paths resolve against the root.
	Store    string              `yaml:"store"`
	LogLevel string              `yaml:"log_level"`
	Aliases  map[string][]string `yaml:"aliases"`
}

// DefaultRoot is TASKTRACK_ROOT, falling back to ~/.tasktrack.
func DefaultRoot() string {
	if env := strings.TrimSpace(os.Getenv(EnvRoot)); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	if home != "" {
		return filepath.Join(home, defaultRootDir)
	}
	return defaultRootDir
}

// Load reads path. A missing file yields the zero Config.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// StorePath resolves the task file for root.
func (c Config) StorePath(root string) string {
	root = ExpandHome(root)
	p := ExpandHome(strings.TrimSpace(c.Store))
	switch {
	case p == "":
		return filepath.Join(root, StoreFileName)
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(root, p)
	}
}

func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
