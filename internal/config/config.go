// Package config loads and saves the application configuration from a YAML
// file, creating a default file on first run.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultOccurrenceCap bounds how many occurrences a single series may
// expand to. The cap applies uniformly to every cadence, so the real-world
// horizon differs between daily and monthly series.
const DefaultOccurrenceCap = 365

// Config is the top-level application configuration.
type Config struct {
	// Database is the path to the SQLite database file.
	Database string `yaml:"database"`

	// Timezone is the IANA zone used as the default for display and for
	// parsing local datetimes in imported files (e.g. "Asia/Shanghai").
	Timezone string `yaml:"timezone"`

	// OccurrenceCap limits recurrence expansion per series.
	OccurrenceCap int `yaml:"occurrence_cap"`

	// ReminderCron is the cron schedule on which the reminder dispatcher
	// sweeps for due reminders.
	ReminderCron string `yaml:"reminder_cron"`

	// Listen is the HTTP listen address for the daemon's metrics endpoint.
	Listen string `yaml:"listen"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database:      defaultDatabasePath(),
		Timezone:      "Local",
		OccurrenceCap: DefaultOccurrenceCap,
		ReminderCron:  "* * * * *",
		Listen:        "127.0.0.1:9190",
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "caldesk.db"
	}
	return filepath.Join(home, ".config", "caldesk", "caldesk.db")
}

// Normalize fills missing or zero values with defaults so that partial
// configs from older versions keep working.
func (c *Config) Normalize() {
	if c.Database == "" {
		c.Database = defaultDatabasePath()
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.OccurrenceCap <= 0 {
		c.OccurrenceCap = DefaultOccurrenceCap
	}
	if c.ReminderCron == "" {
		c.ReminderCron = "* * * * *"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:9190"
	}
}

// Load reads configuration from the given YAML path. If the file does not
// exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".caldesk-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
