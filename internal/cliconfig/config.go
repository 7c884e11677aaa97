package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/clflog/pkg/commonlog"
)

// Defaults for the CLI.
const (
	DefaultPath            = "logs/clf.log"
	DefaultListen          = "127.0.0.1:5090"
	DefaultRetentionDays   = 30
	DefaultCleanupInterval = 24 * time.Hour
	DefaultLogLevel        = "info"
)

// Config holds CLI configuration for clflog.
type Config struct {
	// Path is the log directory or file naming template.
	Path      string
	Name      string
	Separator string
	Extension string

	Synchronous     bool
	ShutdownTimeout time.Duration

	// RetentionDays of 0 disables cleanup.
	RetentionDays   int
	CleanupInterval time.Duration

	LogLevel string
	LogFile  string
	LogUDP   string

	Listen string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Path:            DefaultPath,
		ShutdownTimeout: commonlog.DefaultShutdownTimeout,
		RetentionDays:   DefaultRetentionDays,
		CleanupInterval: DefaultCleanupInterval,
		LogLevel:        DefaultLogLevel,
		Listen:          DefaultListen,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention days must not be negative")
	}
	if c.RetentionDays > 0 && c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return lvl, nil
}

// CommonLog returns the library configuration.
func (c *Config) CommonLog() commonlog.Config {
	return commonlog.Config{
		Path:            c.Path,
		Name:            c.Name,
		Separator:       c.Separator,
		Extension:       c.Extension,
		Synchronous:     c.Synchronous,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setCount sets a non-negative int from a pointer if not nil and flag not changed.
// Zero is a meaningful value here, so absence is expressed with nil.
func (s *configSetter) setCount(flag string, value *int, dst *int) error {
	if value == nil || s.changed[flag] {
		return nil
	}
	if *value < 0 {
		return fmt.Errorf("%s must not be negative", flag)
	}
	*dst = *value
	return nil
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setCountFromString parses a string to a non-negative int and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setCountFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	return s.setCount(flag, &i, dst)
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
