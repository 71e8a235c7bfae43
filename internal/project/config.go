package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/piwi3910/atlaspack/internal/model"
)

// DefaultConfigFile is the config file name looked up in the working
// directory when none is given.
const DefaultConfigFile = "atlaspack.toml"

// DefaultConfigDir returns the per-user configuration directory, ~/.atlaspack.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".atlaspack")
}

// DefaultConfigPath returns the config file in the working directory if one
// exists, otherwise the one in DefaultConfigDir.
func DefaultConfigPath() string {
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// SaveConfig persists a Config to the given path as TOML.
// It creates any missing parent directories automatically.
func SaveConfig(path string, cfg model.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadConfig reads a Config from the given path. Keys absent from the file
// keep their default values. If the file does not exist, it returns
// DefaultConfig with no error.
func LoadConfig(path string) (model.Config, error) {
	cfg := model.DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.DefaultConfig(), nil
		}
		return model.Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return model.Config{}, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	if cfg.ExcludeTextures == nil {
		cfg.ExcludeTextures = []string{}
	}
	if cfg.UtilityTextureSuffixes == nil {
		cfg.UtilityTextureSuffixes = []string{}
	}
	return cfg, nil
}
