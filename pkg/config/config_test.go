package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with an empty home so no
// real config leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("QUESTLOG_CONFIG_PATH", "")
	homedir.DisableCache = true
	return dir
}

func TestDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, filepath.Join(home, ".questlog", "questlog.db"), cfg.StorePath)
	assert.Equal(t, filepath.Join(home, ".questlog", "session"), cfg.SessionPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.PreviewDebounce)
	assert.Empty(t, cfg.File)
}

func TestConfigFileAndEnv(t *testing.T) {
	isolate(t)
	confDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(confDir, ".questlog.yaml"), []byte(`
store:
  driver: memory
log:
  level: debug
sync:
  online_check_interval: 2s
`), 0o644))
	t.Setenv("QUESTLOG_CONFIG_PATH", confDir)
	t.Setenv("QUESTLOG_LOG_LEVEL", "info")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "info", cfg.LogLevel, "environment wins over the file")
	assert.Equal(t, 2*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, filepath.Join(confDir, ".questlog.yaml"), cfg.File)
}

func TestDotenv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUESTLOG_STORE_PATH=/tmp/from-dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("QUESTLOG_STORE_PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.StorePath)
}

func TestRejectsUnknownDriver(t *testing.T) {
	isolate(t)
	t.Setenv("QUESTLOG_STORE_DRIVER", "firestore")

	_, err := Load()
	assert.Error(t, err)
}

func TestBrokenConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".questlog.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}
