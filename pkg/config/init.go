package config

import (
	"fmt"
	"os"
)

// InitConfig writes a default configuration file to the default location,
// returning its path. It refuses to overwrite an existing file unless
// force is true.
func InitConfig(force bool) (string, error) {
	return InitToPath(GetDefaultConfigPath(), force, DefaultConfig())
}

// InitConfigToPath writes a default configuration file to path, refusing
// to overwrite an existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	_, err := InitToPath(path, force, DefaultConfig())
	return err
}

// InitToPath writes cfg to path, refusing to overwrite an existing file
// unless force is true. Used by `filewired config init` to persist
// whatever the interactive wizard (or --non-interactive defaults)
// produced.
func InitToPath(path string, force bool, cfg *Config) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}
	return path, SaveConfig(cfg, path)
}
