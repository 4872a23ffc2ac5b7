package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "digitaltwins", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "default", cfg.Store.DefaultGraph)
	assert.Equal(t, 100, cfg.Query.DefaultPageSize)
	assert.Equal(t, 1000, cfg.Query.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.Jobs.LockTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DTWIN_STORE_DSN", "postgres://example/db")
	t.Setenv("DTWIN_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://example/db", cfg.Store.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("service_name: twins-prod\nstore:\n  default_graph: factory\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "twins-prod", cfg.ServiceName)
	assert.Equal(t, "factory", cfg.Store.DefaultGraph)
}

func TestLoad_ValidationFailsOnBadPort(t *testing.T) {
	t.Setenv("DTWIN_SERVER_PORT", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_ValidationFailsOnBadLogLevel(t *testing.T) {
	t.Setenv("DTWIN_LOG_LEVEL", "verbose")
	_, err := Load("")
	assert.Error(t, err)
}
