// Package domain holds the error taxonomy shared by every clflog layer.
//
// It has no dependencies on infrastructure concerns. Public packages re-export
// the sentinels they return so callers never import this package directly:
//
//   - [ErrFormat]: version mismatch or broken pointer table while decoding
//   - [ErrStorageUnavailable]: the rotation directory cannot be created
//   - [ErrClosed]: submission after the asynchronous writer shut down
//   - [ErrAlreadyRunning], [ErrNotRunning], [ErrShutdownTimeout]: lifecycle
//   - [ErrInvalidConfig]: configuration validation
package domain
