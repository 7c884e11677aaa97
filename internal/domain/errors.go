package domain

import "errors"

// Domain errors represent error conditions in the clflog domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrFormat is returned when a record stream does not start with the expected
	// version marker or carries a structurally invalid pointer table.
	// It is fatal for the stream being decoded.
	ErrFormat = errors.New("clflog: invalid record format")

	// ErrStorageUnavailable is returned when the rotation directory cannot be
	// created or resolved.
	ErrStorageUnavailable = errors.New("clflog: storage unavailable")

	// ErrClosed is returned when a record is submitted after shutdown began.
	ErrClosed = errors.New("clflog: writer closed")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("clflog: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("clflog: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("clflog: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("clflog: invalid configuration")
)
