package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: "9090"
database:
  driver: none
data:
  flights: ` + filepath.Join(dir, "flights.csv") + `
  airports: ` + filepath.Join(dir, "airports.csv") + `
  master_cache: ` + filepath.Join(dir, "cache", "master.csv") + `
master:
  fetch_timeout: 15s
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 15*time.Second, cfg.Master.FetchTimeout)
	assert.Equal(t, "https://davidmegginson.github.io/ourairports-data/airports.csv", cfg.Master.URL, "default kept")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.DirExists(t, filepath.Join(dir, "cache"))
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLIGHTLOG_MASTER_CACHE", filepath.Join(dir, "master.csv"))
	t.Setenv("FLIGHTLOG_MASTER_URL", "http://localhost/airports.csv")
	t.Setenv("FLIGHTLOG_FORCE_REFRESH", "true")
	t.Setenv("FLIGHTLOG_DB_DRIVER", "mysql")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/airports.csv", cfg.Master.URL)
	assert.True(t, cfg.Master.ForceRefresh)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 60*time.Second, cfg.Master.FetchTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("FLIGHTLOG_MASTER_CACHE", filepath.Join(t.TempDir(), "master.csv"))
	t.Setenv("FLIGHTLOG_FETCH_TIMEOUT", "soon")
	_, err = LoadConfig("")
	assert.Error(t, err)

	t.Setenv("FLIGHTLOG_FETCH_TIMEOUT", "1s")
	t.Setenv("FLIGHTLOG_FORCE_REFRESH", "maybe")
	_, err = LoadConfig("")
	assert.Error(t, err)
}
