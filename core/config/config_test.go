package config

import (
	"os"
	"path/filepath"
	"testing"

	"dirsync/core/server"
	"dirsync/core/syncoptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "plan", cfg.Server.Mode)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "(objectClass=inetOrgPerson)", cfg.Directory.Filter)
	assert.Equal(t, 500, cfg.Directory.PageSize)
	assert.Equal(t, "ou=People", cfg.Sync.PeopleContainer)
	assert.Equal(t, 60, cfg.Sync.CacheTTLSeconds)
	assert.True(t, cfg.Sync.Audit)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DIRECTORY_BASE_DN", "dc=corp,dc=local")
	t.Setenv("SYNC_TASK_DIR", "/etc/dirsync/tasks")
	t.Setenv("SERVER_MODE", "apply")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "dc=corp,dc=local", cfg.Directory.BaseDN)
	assert.Equal(t, "/etc/dirsync/tasks", cfg.Sync.TaskDir)
	assert.True(t, cfg.Server.AllowsApply())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nDIRECTORY_PAGE_SIZE=50\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("DIRECTORY_PAGE_SIZE")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Directory.PageSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("SERVER_MODE", "yolo")
	t.Setenv("SYNC_TASK_SOURCE", "ftp")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `server.mode "yolo"`)
	assert.Contains(t, err.Error(), `sync.task_source "ftp"`)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server: server.Config{Mode: server.ModeApply},
		Sync:   syncoptions.Config{TaskSource: syncoptions.TaskSourceStorage},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Directory.PageSize = -1
	assert.ErrorContains(t, cfg.Validate(), "page_size")
}
