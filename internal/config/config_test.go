package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignTTL)
	assert.Empty(t, cfg.Financing.VehicleRates)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": 9090},
		"database": {"db_name": "from_file"},
		"financing": {"vehicle_rates": {"12": 1.1, "24": 1.2}}
	}`), 0o600))

	t.Setenv("DATABASE_DBNAME", "from_env")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from_env", cfg.Database.DBName)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, map[int]float64{12: 1.1, 24: 1.2}, cfg.Financing.VehicleRates)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.GetServerAddr())
	assert.Equal(t, "postgres://postgres:@localhost:5432/from_env?sslmode=disable", cfg.Database.GetDatabaseURL())
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestParseRates(t *testing.T) {
	rates, err := ParseRates("12:1.29, 24:1.39")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{12: 1.29, 24: 1.39}, rates)

	t.Setenv("FINANCING_VEHICLE_RATES", "12-1.29")
	_, err = LoadConfig("")
	assert.Error(t, err)

	_, err = ParseRates("x:1")
	assert.Error(t, err)
}
