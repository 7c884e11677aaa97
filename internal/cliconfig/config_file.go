package cliconfig

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML and
// YAML friendly.
type FileConfig struct {
	Path            string `toml:"path" yaml:"path"`
	Name            string `toml:"name" yaml:"name"`
	Separator       string `toml:"separator" yaml:"separator"`
	Extension       string `toml:"extension" yaml:"extension"`
	Synchronous     *bool  `toml:"synchronous" yaml:"synchronous"`
	ShutdownTimeout string `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	RetentionDays   *int   `toml:"retention_days" yaml:"retention_days"`
	CleanupInterval string `toml:"cleanup_interval" yaml:"cleanup_interval"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
	LogFile         string `toml:"log_file" yaml:"log_file"`
	LogUDP          string `toml:"log_udp" yaml:"log_udp"`
	Listen          string `toml:"listen" yaml:"listen"`
}

// LoadFileConfig reads and parses a config file from the given path.
// Files ending in .yaml or .yml are parsed as YAML, anything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.clflog/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".clflog", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("path", fc.Path, &cfg.Path)
	s.setString("name", fc.Name, &cfg.Name)
	s.setString("separator", fc.Separator, &cfg.Separator)
	s.setString("extension", fc.Extension, &cfg.Extension)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("log-udp", fc.LogUDP, &cfg.LogUDP)
	s.setString("listen", fc.Listen, &cfg.Listen)

	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("cleanup-interval", fc.CleanupInterval, &cfg.CleanupInterval); err != nil {
		return err
	}
	if err := s.setCount("retention-days", fc.RetentionDays, &cfg.RetentionDays); err != nil {
		return err
	}

	s.setBool("sync", fc.Synchronous, &cfg.Synchronous)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
