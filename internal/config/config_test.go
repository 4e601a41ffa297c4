package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "release", cfg.Server.Mode)
	require.Equal(t, "filesystem", cfg.EventTypes.SourceType)
	require.True(t, cfg.Database.AutoMigrate)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veldt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9200
  mode: debug
event_types:
  path: /etc/veldt/eventtypes
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9200, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.Mode)
	require.Equal(t, "/etc/veldt/eventtypes", cfg.EventTypes.Path)
	// Untouched keys keep their defaults.
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("VELDT_SERVER__PORT", "9500")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9500, cfg.Server.Port)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.Server.Mode = "verbose"
	require.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.EventTypes.Path = ""
	require.Error(t, cfg.Validate())

	cfg, _ = Load("")
	cfg.EventTypes.SourceType = "s3"
	require.Error(t, cfg.Validate())
}
