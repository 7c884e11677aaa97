package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "CLFLOG_"

// ApplyEnvConfig applies CLFLOG_* environment variables to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("path", env("PATH"), &cfg.Path)
	s.setString("name", env("NAME"), &cfg.Name)
	s.setString("separator", env("SEPARATOR"), &cfg.Separator)
	s.setString("extension", env("EXTENSION"), &cfg.Extension)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-file", env("LOG_FILE"), &cfg.LogFile)
	s.setString("log-udp", env("LOG_UDP"), &cfg.LogUDP)
	s.setString("listen", env("LISTEN"), &cfg.Listen)

	if err := s.setDuration("shutdown-timeout", env("SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("cleanup-interval", env("CLEANUP_INTERVAL"), &cfg.CleanupInterval); err != nil {
		return err
	}
	if err := s.setCountFromString("retention-days", env("RETENTION_DAYS"), &cfg.RetentionDays); err != nil {
		return err
	}

	s.setBoolFromString("sync", env("SYNCHRONOUS"), &cfg.Synchronous)

	return nil
}
