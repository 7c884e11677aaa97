package logcleanup

import "github.com/bft-labs/clflog/pkg/commonlog"

// WithLogCleanup returns a commonlog Option that enables expired file cleanup.
//
// Usage:
//
//	cl, err := commonlog.New(cfg,
//	    logcleanup.WithLogCleanup(logcleanup.Config{
//	        RetentionDays: 7,
//	        CheckInterval: time.Hour,
//	    }),
//	)
func WithLogCleanup(cfg Config) commonlog.Option {
	return commonlog.WithPlugin(New(cfg))
}

// WithDefaultLogCleanup returns a commonlog Option that enables cleanup with
// default settings (check every 24h, keep 30 days).
func WithDefaultLogCleanup() commonlog.Option {
	return WithLogCleanup(DefaultConfig())
}
