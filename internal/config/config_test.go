package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "memory", cfg.Store.Mode)
	require.Zero(t, cfg.Seed)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
store:
  mode: sqlite
  sqlite_path: /tmp/test.db
seed: 42
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, "sqlite", cfg.Store.Mode)
	require.Equal(t, "/tmp/test.db", cfg.Store.SQLitePath)
	require.EqualValues(t, 42, cfg.Seed)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\n"), 0o644))

	t.Setenv("LISTEN_ADDR", ":7000")
	t.Setenv("STORE_MODE", "postgres")
	t.Setenv("GAME_SEED", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.ListenAddr)
	require.Equal(t, "postgres", cfg.Store.Mode)
	require.EqualValues(t, 7, cfg.Seed)
}

func TestLoadRejectsBadMode(t *testing.T) {
	t.Setenv("STORE_MODE", "oracle")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
