package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ProjectConfigPath is the project-local config file, checked into the
// workspace alongside its task bank.
const ProjectConfigPath = ".openagents/config.json"

// ProjectConfigPathIn returns the project-local config file path rooted at
// cwd, for callers (such as the config CLI subcommands) that patch single
// fields via a Store rather than loading the full merged Config.
func ProjectConfigPathIn(cwd string) string {
	return filepath.Join(cwd, ProjectConfigPath)
}

// GlobalConfigPath returns the path to the user's global config file,
// under $HOME/.config/openagents (or $XDG_CONFIG_HOME if set).
func GlobalConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "openagents", "config.json")
}

// Load builds a Config by starting from Default(), merging the global
// config file, then the project config file at cwd/.openagents/config.json,
// each overlaying only the fields it sets. A .env file in cwd is loaded
// into the process environment first (if present); the config files
// themselves are read as written, and $VAR references in them are not
// expanded. Once merged, any variables under
// Options.Env are validated and exported into the process environment too,
// so a sandboxed task run sees them.
func Load(cwd string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(cwd, ".env"))

	cfg := Default()

	if err := mergeFile(cfg, GlobalConfigPath()); err != nil {
		return nil, err
	}
	if err := mergeFile(cfg, filepath.Join(cwd, ProjectConfigPath)); err != nil {
		return nil, err
	}

	if err := cfg.Options.Env.ValidateEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Options.Env.SetEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile overlays path's JSON onto cfg in place. A missing file is not
// an error. Because Config's maps are shared reference types, unmarshaling
// directly onto the existing *cfg merges new provider/agent keys in while
// leaving ones the overlay doesn't mention untouched.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Save writes cfg to the project config path under cwd, creating
// .openagents/ if needed.
func Save(cwd string, cfg *Config) error {
	return writeIndented(filepath.Join(cwd, ProjectConfigPath), cfg)
}
