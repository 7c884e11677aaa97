// Package log is the structured logging port of clflog.
//
// Components accept a Logger and never import a logging library directly.
// ZerologAdapter backs the port with zerolog; NoopLogger discards
// everything and is the default of every component.
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger = logger.With(log.String("component", "collector"))
//	logger.Warn("dropping malformed datagram", log.Int("bytes", n), log.Err(err))
//
// Another library can be plugged in by implementing Logger, including With.
//
// See version.go for version constants that can be used programmatically.
package log
