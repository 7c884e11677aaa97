package commonlog

import "github.com/bft-labs/clflog/internal/domain"

// Errors returned by CommonLog, checked with errors.Is.
var (
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrClosed             = domain.ErrClosed
	ErrAlreadyRunning     = domain.ErrAlreadyRunning
	ErrNotRunning         = domain.ErrNotRunning
	ErrShutdownTimeout    = domain.ErrShutdownTimeout
	ErrInvalidConfig      = domain.ErrInvalidConfig
)
