// Package config loads and persists the CLI's on-disk configuration: which
// server to talk to, where the local project directories live, and the
// logged-in user's identity.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openmined/projectsync/internal/utils"
)

var (
	home, _ = os.UserHomeDir()

	DefaultConfigPath  = filepath.Join(home, ".projectsync", "config.json")
	DefaultLogFilePath = filepath.Join(home, ".projectsync", "logs", "client.log")
	DefaultDataDir     = filepath.Join(home, "Projects")
	DefaultAPIRoot     = "https://public.cloudmergin.com/"
)

// Config is the persisted shape of the client's configuration file plus a
// couple of fields that only ever live in memory for the process lifetime.
type Config struct {
	// Path is where this config was loaded from / will be saved to.
	Path string `json:"-"`

	// DataDir is the root directory containing all local project
	// directories.
	DataDir string `json:"data_dir"`

	// APIRoot is the base URL of the server.
	APIRoot string `json:"api_root"`

	// Username identifies the account used to authenticate.
	Username string `json:"username"`

	// RefreshToken is the long-lived credential persisted to disk so the
	// CLI doesn't re-prompt for a password every run. A plaintext
	// password is deliberately never persisted.
	RefreshToken string `json:"refresh_token"`

	// AccessToken is the short-lived bearer token obtained from
	// RefreshToken (or a fresh login); never written to disk.
	AccessToken string `json:"-"`
}

// Validate normalizes fields in place and reports the first invalid one.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("config: username is required")
	}
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))

	if c.DataDir == "" {
		return fmt.Errorf("config: data dir is required")
	}
	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("config: data dir: %w", err)
	}
	c.DataDir = dataDir

	if err := utils.ValidateURL(c.APIRoot); err != nil {
		return fmt.Errorf("config: api root: %w", err)
	}

	if c.Path != "" {
		path, err := utils.ResolvePath(c.Path)
		if err != nil {
			return fmt.Errorf("config: path: %w", err)
		}
		c.Path = path
	}

	return nil
}

// Save writes the config as indented JSON to c.Path.
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("config: no path set")
	}

	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	return os.WriteFile(c.Path, data, 0o600)
}

// LoadFromFile reads and parses a config file, filling in defaults for
// fields that are never persisted.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Path = path
	if cfg.APIRoot == "" {
		cfg.APIRoot = DefaultAPIRoot
	}

	return &cfg, nil
}
