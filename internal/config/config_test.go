package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServer(t *testing.T) {
	cfg := DefaultServer()
	assert.Equal(t, 8090, cfg.Port)
	assert.Contains(t, cfg.AllowedExtensions, "pem")
	assert.True(t, cfg.AllowsExtension("pem"))
	assert.False(t, cfg.AllowsExtension("exe"))
}

func TestLoadServer_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServer(), cfg)
}

func TestLoadServer_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "port: 9999\nallowed_extensions:\n  - pem\n  - crt\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, []string{"pem", "crt"}, cfg.AllowedExtensions)
	assert.Equal(t, DefaultServer().BindAddress, cfg.BindAddress, "fields absent from the file keep their defaults")
}

func TestLoadServer_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [this is not valid"), 0o644))

	_, err := LoadServer(path)
	assert.Error(t, err)
}

func TestDefaultCLI(t *testing.T) {
	cfg := DefaultCLI()
	assert.Equal(t, 2048, cfg.RingBits)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadCLI_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadCLI(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCLI(), cfg)
}
