package commonlog

import (
	"fmt"
	"time"

	"github.com/bft-labs/clflog/internal/domain"
	"github.com/bft-labs/clflog/pkg/rotate"
)

// DefaultShutdownTimeout bounds how long Stop waits for queued records.
const DefaultShutdownTimeout = 30 * time.Second

// Config holds the configuration of a CommonLog.
type Config struct {
	// Path is the storage directory, or a file path used as naming template
	// ("/var/log/sip/clf.log" names files clf-YYYYMMDD.log in /var/log/sip).
	Path string

	// Name, Separator and Extension override the parts derived from Path.
	Name      string
	Separator string
	Extension string

	// Synchronous makes Record write and sync before returning.
	Synchronous bool

	// ShutdownTimeout bounds Stop. Default: 30 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config that writes clf-YYYYMMDD.log files into dir.
func DefaultConfig(dir string) Config {
	return Config{
		Path:            dir,
		Name:            rotate.DefaultName,
		Separator:       rotate.DefaultSeparator,
		Extension:       rotate.DefaultExtension,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path is required", domain.ErrInvalidConfig)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Layout returns the file naming layout described by c.
func (c Config) Layout() rotate.Layout {
	l := rotate.ParseTemplate(c.Path)
	if c.Name != "" {
		l.Name = c.Name
	}
	if c.Separator != "" {
		l.Separator = c.Separator
	}
	if c.Extension != "" {
		l.Extension = c.Extension
	}
	return l
}
