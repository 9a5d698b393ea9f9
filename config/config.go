// Package config loads the YAML secrets/configuration file for uhppoted-app-tasks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/uhppoted/uhppoted-app-tasks/gsheets"
	"github.com/uhppoted/uhppoted-app-tasks/store"
)

const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Backend string  `yaml:"backend"`
	Google  Google  `yaml:"google"`
	SQLite  SQLite  `yaml:"sqlite"`
	Tabs    Tabs    `yaml:"tabs"`
	Cache   Cache   `yaml:"cache"`
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
}

type Google struct {
	Spreadsheet    string         `yaml:"spreadsheet"`
	Credentials    string         `yaml:"credentials"`
	Tokens         string         `yaml:"tokens,omitempty"`
	ServiceAccount map[string]any `yaml:"service_account,omitempty"`
}

type SQLite struct {
	Database string `yaml:"database"`
}

type Tabs struct {
	Tasks      string `yaml:"tasks"`
	Categories string `yaml:"categories"`
	Users      string `yaml:"users"`
	Comments   string `yaml:"comments"`
}

type Cache struct {
	Tasks      time.Duration `yaml:"tasks"`
	Categories time.Duration `yaml:"categories"`
	Users      time.Duration `yaml:"users"`
	Comments   time.Duration `yaml:"comments"`
}

type HTTP struct {
	Bind string `yaml:"bind"`
}

type Logging struct {
	Debug bool `yaml:"debug"`
	JSON  bool `yaml:"json"`
}

// Default returns the configuration used when there is no secrets file.
func Default() *Config {
	return &Config{
		Backend: BackendSheets,
		Tabs: Tabs{
			Tasks:      store.DefaultTabs.Tasks,
			Categories: store.DefaultTabs.Categories,
			Users:      store.DefaultTabs.Users,
			Comments:   store.DefaultTabs.Comments,
		},
		Cache: Cache{
			Tasks:      store.DefaultTTL.Tasks,
			Categories: store.DefaultTTL.Categories,
			Users:      store.DefaultTTL.Users,
			Comments:   store.DefaultTTL.Comments,
		},
		HTTP: HTTP{
			Bind: "127.0.0.1:8080",
		},
	}
}

// Load reads the configuration from a YAML file, falling back to the defaults for anything the
// file does not set. A missing file is not an error. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if bytes, err := os.ReadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading %v (%w)", path, err)
	} else if err == nil {
		if err := yaml.Unmarshal(bytes, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %v (%w)", path, err)
		}

		if cfg.Google.Credentials != "" && !filepath.IsAbs(cfg.Google.Credentials) {
			cfg.Google.Credentials = filepath.Join(filepath.Dir(path), cfg.Google.Credentials)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file, readable only by the owner since it may hold a
// service account key.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	bytes, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, bytes, 0600)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TASKS_SPREADSHEET_KEY"); v != "" {
		c.Google.Spreadsheet = v
	}

	if v := os.Getenv("TASKS_CREDENTIALS"); v != "" {
		c.Google.Credentials = v
	}

	if v := os.Getenv("TASKS_BIND"); v != "" {
		c.HTTP.Bind = v
	}
}

// SpreadsheetKey returns the configured spreadsheet key, extracting it from a spreadsheet URL if
// necessary.
func (c *Config) SpreadsheetKey() (string, error) {
	return gsheets.SpreadsheetKey(c.Google.Spreadsheet)
}

func (c *Config) Credentials() gsheets.Credentials {
	return gsheets.Credentials{
		File:           c.Google.Credentials,
		ServiceAccount: c.Google.ServiceAccount,
		Tokens:         c.Google.Tokens,
	}
}

// StoreTabs returns the configured tab names, using the default for any that are blank.
func (c *Config) StoreTabs() store.Tabs {
	return store.Tabs{
		Tasks:      or(c.Tabs.Tasks, store.DefaultTabs.Tasks),
		Categories: or(c.Tabs.Categories, store.DefaultTabs.Categories),
		Users:      or(c.Tabs.Users, store.DefaultTabs.Users),
		Comments:   or(c.Tabs.Comments, store.DefaultTabs.Comments),
	}
}

// StoreTTL returns the configured cache lifetimes. A zero (or missing) lifetime disables caching
// for that entity.
func (c *Config) StoreTTL() store.TTL {
	return store.TTL{
		Tasks:      c.Cache.Tasks,
		Categories: c.Cache.Categories,
		Users:      c.Cache.Users,
		Comments:   c.Cache.Comments,
	}
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}

	return fallback
}
