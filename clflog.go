// Package clflog records SIP transaction events in the Common Log Format
// (RFC 6873) to one file per UTC day.
//
// Example usage:
//
//	cl, err := clflog.New(clflog.DefaultConfig("/var/log/sip"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cl.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer cl.Stop()
//
//	rec := &clflog.Record{Timestamp: time.Now().UnixMilli(), Type: clf.Request}
//	rec.Add(clf.Header("Subject", "lunch"))
//	_ = cl.Record(rec)
package clflog

import (
	"time"

	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/commonlog"
	"github.com/bft-labs/clflog/pkg/rotate"
	"github.com/bft-labs/clflog/pkg/storage"
)

// Config holds the configuration of a CommonLog.
type Config = commonlog.Config

// CommonLog writes records to rotating day files.
type CommonLog = commonlog.CommonLog

// Option configures optional behavior of a CommonLog.
type Option = commonlog.Option

// Record is one logged SIP transaction event.
type Record = clf.Record

// Errors, checked with errors.Is.
var (
	ErrFormat             = clf.ErrFormat
	ErrStorageUnavailable = commonlog.ErrStorageUnavailable
	ErrClosed             = commonlog.ErrClosed
	ErrNotRunning         = commonlog.ErrNotRunning
	ErrShutdownTimeout    = commonlog.ErrShutdownTimeout
	ErrInvalidConfig      = commonlog.ErrInvalidConfig
)

// New creates a CommonLog. Call Start before recording.
func New(cfg Config, opts ...Option) (*CommonLog, error) {
	return commonlog.New(cfg, opts...)
}

// DefaultConfig returns a Config writing clf-YYYYMMDD.log files into dir.
func DefaultConfig(dir string) Config {
	return commonlog.DefaultConfig(dir)
}

// Search reads the records between begin and end from the day files under
// cfg without starting a writer.
func Search(cfg Config, begin, end time.Time) ([]*Record, error) {
	resolver, err := rotate.New(cfg.Layout())
	if err != nil {
		return nil, err
	}
	return storage.Search(resolver, begin, end)
}
