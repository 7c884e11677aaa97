package log

import (
	"time"

	"code.cloudfoundry.org/bytefmt"
)

// Logger is the structured logging port of clflog components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a Logger that adds fields to every message.
	With(fields ...Field) Logger
}

// Field is a key-value pair attached to a message.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{key, value} }

func Int(key string, value int) Field { return Field{key, value} }

func Int64(key string, value int64) Field { return Field{key, value} }

func Uint64(key string, value uint64) Field { return Field{key, value} }

func Bool(key string, value bool) Field { return Field{key, value} }

func Duration(key string, value time.Duration) Field { return Field{key, value} }

func Time(key string, value time.Time) Field { return Field{key, value} }

// Size formats a byte count the way operators read it, such as "1.5M".
func Size(key string, n uint64) Field { return Field{key, bytefmt.ByteSize(n)} }

// Err attaches err under the key "error".
func Err(err error) Field { return Field{"error", err} }

// Any attaches a value of any type. It is rendered as JSON.
func Any(key string, value interface{}) Field { return Field{key, value} }

// NoopLogger discards everything.
type NoopLogger struct{}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() *NoopLogger { return &NoopLogger{} }

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}

func (n NoopLogger) With(...Field) Logger { return n }
