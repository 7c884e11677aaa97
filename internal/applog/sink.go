// Package applog builds the textual application logger of the clflog
// command. Log lines are fanned out to a set of sinks: the console, a
// daily rotated file and a UDP endpoint.
package applog

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/clflog/pkg/rotate"
)

// Sink is a destination for formatted log lines.
type Sink interface {
	io.Writer

	// Open prepares the sink for lines logged at ts.
	Open(ts time.Time) error

	// Close releases the sink. Writes after Close are dropped.
	Close() error
}

// ConsoleSink writes human readable lines to a terminal.
type ConsoleSink struct {
	w zerolog.ConsoleWriter
}

// NewConsoleSink returns a sink writing to out, or to stderr when out is nil.
func NewConsoleSink(out io.Writer, noColor bool) *ConsoleSink {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleSink{w: zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}}
}

func (s *ConsoleSink) Open(time.Time) error { return nil }

func (s *ConsoleSink) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *ConsoleSink) Close() error { return nil }

// FileSink writes lines to one file per UTC day, named like the record
// files: app-20120209.log for the template "app.log".
type FileSink struct {
	mu       sync.Mutex
	resolver *rotate.Resolver
	now      func() time.Time
	format   zerolog.ConsoleWriter
	current  rotate.File
	f        *os.File
	closed   bool
}

// NewFileSink returns a sink writing to the day files described by the path
// template. now defaults to time.Now.
func NewFileSink(template string, now func() time.Time) (*FileSink, error) {
	if now == nil {
		now = time.Now
	}
	resolver, err := rotate.New(rotate.ParseTemplate(template), rotate.WithClock(now))
	if err != nil {
		return nil, err
	}
	s := &FileSink{resolver: resolver, now: now, current: rotate.Empty}
	s.format = zerolog.ConsoleWriter{Out: fileWriter{s}, TimeFormat: time.RFC3339, NoColor: true}
	return s, nil
}

// Open opens the file for the day of ts.
func (s *FileSink) Open(ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(ts)
}

func (s *FileSink) open(ts time.Time) error {
	day := s.resolver.Rotate(ts.UnixMilli())
	if s.f != nil && s.current == day {
		return nil
	}
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
	f, err := os.OpenFile(day.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		s.current = rotate.Empty
		return fmt.Errorf("open log file: %w", err)
	}
	s.f = f
	s.current = day
	return nil
}

// Write formats p and appends it to the file of the current day, switching
// files at midnight.
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(p), nil
	}
	if !s.current.Contains(s.now().UnixMilli()) || s.f == nil {
		if err := s.open(s.now()); err != nil {
			return 0, err
		}
	}
	return s.format.Write(p)
}

// Path returns the file currently written to.
func (s *FileSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Path
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.current = rotate.Empty
	return err
}

// fileWriter is the raw output of the formatter; the sink lock is held.
type fileWriter struct{ s *FileSink }

func (w fileWriter) Write(p []byte) (int, error) { return w.s.f.Write(p) }

// UDPSink sends each line as one datagram. Delivery is best effort: send
// errors are swallowed.
type UDPSink struct {
	addr string

	mu   sync.Mutex
	conn net.Conn
}

// NewUDPSink returns a sink sending to addr ("host:port").
func NewUDPSink(addr string) *UDPSink {
	return &UDPSink{addr: addr}
}

func (s *UDPSink) Open(time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	conn, err := net.Dial("udp", s.addr)
	if err != nil {
		return fmt.Errorf("dial log endpoint %s: %w", s.addr, err)
	}
	s.conn = conn
	return nil
}

func (s *UDPSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_, _ = conn.Write(p)
	}
	return len(p), nil
}

func (s *UDPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
