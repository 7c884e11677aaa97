package applog

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/clflog/pkg/log"
)

// Config selects the sinks of a Logger.
type Config struct {
	Level zerolog.Level

	// Console receives human readable output. Nil means stderr.
	Console   io.Writer
	NoConsole bool

	// File is a path template for daily rotated log files. Empty disables it.
	File string

	// UDP is a "host:port" endpoint receiving JSON lines. Empty disables it.
	UDP string

	// Now is the clock used for file rotation. Nil means time.Now.
	Now func() time.Time
}

// Logger is a zerolog logger writing to a set of sinks.
type Logger struct {
	zl    zerolog.Logger
	sinks []Sink
}

// New opens the configured sinks and returns a logger fanning out to them.
// Sinks opened before a failure are closed again.
func New(cfg Config) (*Logger, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var sinks []Sink
	if !cfg.NoConsole {
		sinks = append(sinks, NewConsoleSink(cfg.Console, cfg.Console != nil))
	}
	if cfg.File != "" {
		fs, err := NewFileSink(cfg.File, now)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if cfg.UDP != "" {
		sinks = append(sinks, NewUDPSink(cfg.UDP))
	}

	ts := now()
	writers := make([]io.Writer, 0, len(sinks))
	for i, s := range sinks {
		if err := s.Open(ts); err != nil {
			closeAll(sinks[:i])
			return nil, err
		}
		writers = append(writers, s)
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}
	zl := zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
	return &Logger{zl: zl, sinks: sinks}, nil
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Adapter returns the logger as a log.Logger for library components.
func (l *Logger) Adapter() log.Logger {
	return log.NewZerologAdapterWithLogger(l.zl)
}

// Close closes every sink.
func (l *Logger) Close() error {
	return closeAll(l.sinks)
}

func closeAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
