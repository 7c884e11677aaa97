// Package storage persists encoded records into rotating day files.
//
// [RotatingWriter] appends records to the file of the UTC day their timestamp
// falls into, switching files when a timestamp leaves the window of the open
// one. [AsyncWriter] puts a queue and a single consumer goroutine in front of a
// RotatingWriter so producers never wait on disk I/O. [Search] reads records
// back for a time range.
//
// # Usage
//
//	resolver, _ := rotate.New(rotate.ParseTemplate("/var/log/sip/clf.log"))
//	w := storage.NewAsyncWriter(storage.NewRotatingWriter(resolver, logger))
//	defer w.Close() // drains the queue
//
//	_ = w.Submit(rec)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package storage
