// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// TokenEnv overrides the upload token from the config file.
const TokenEnv = "BIBLE365_TOKEN"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Reading ReadingConfig `toml:"reading"`
	Upload  UploadConfig  `toml:"upload"`
	Log     LogConfig     `toml:"log"`
}

// ReadingConfig maps reading-related settings.
type ReadingConfig struct {
	User      *string  `toml:"user"`
	Threshold *float64 `toml:"threshold"`
	BiblePath *string  `toml:"bible-path"`
	TeamID    *int     `toml:"team-id"`
	TeamName  *string  `toml:"team-name"`
	Resume    *bool    `toml:"resume"`
	Category  *string  `toml:"category"`
}

// UploadConfig maps the remote progress service.
type UploadConfig struct {
	Enabled *bool   `toml:"enabled"`
	BaseURL *string `toml:"base-url"`
	Token   *string `toml:"token"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) validate() error {
	if t := c.Reading.Threshold; t != nil && (*t <= 0 || *t > 1) {
		return fmt.Errorf("reading.threshold must be in (0, 1], got %v", *t)
	}
	if id := c.Reading.TeamID; id != nil && *id <= 0 {
		return fmt.Errorf("reading.team-id must be positive, got %d", *id)
	}
	return nil
}

// UploadToken returns the token from the environment, falling back to the file.
func (c FileConfig) UploadToken() string {
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return v
	}
	if c.Upload.Token != nil {
		return *c.Upload.Token
	}
	return ""
}
