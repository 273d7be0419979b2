package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 64*1024, cfg.RecvBufferCap)
}

func TestLoad_PartialFileOverlaysDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
listen: "127.0.0.1:9999"
share:
  path: "/srv/files"
  backend: "filesystem"
logging:
  level: "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
	assert.Equal(t, "/srv/files", cfg.Share.Path)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	// untouched sections still carry their defaults
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestValidate_RejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_RejectsMissingShare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Share.Path = ""

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_RejectsS3BackendWithoutBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Share.Backend = ShareBackendS3

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:1234"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:1234", loaded.Listen)
}
