package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultOccurrenceCap, cfg.OccurrenceCap)
	assert.Equal(t, "* * * * *", cfg.ReminderCron)

	// the default file must now exist with restricted permissions
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &Config{
		Database:      "/tmp/cal.db",
		Timezone:      "Asia/Shanghai",
		OccurrenceCap: 52,
		ReminderCron:  "*/5 * * * *",
		Listen:        "127.0.0.1:9999",
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.NotEmpty(t, cfg.Database)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.Equal(t, DefaultOccurrenceCap, cfg.OccurrenceCap)
	assert.NotEmpty(t, cfg.ReminderCron)
	assert.NotEmpty(t, cfg.Listen)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
