// Package commonlog provides the process-wide SIP Common Log Format writer.
//
// A [CommonLog] owns the rotating day files, the asynchronous writer in front
// of them and any plugins (such as expired file cleanup) that run alongside.
// It is constructed once at startup and torn down with an explicit Stop.
//
// # Basic Usage
//
//	cl, err := commonlog.New(commonlog.Config{Path: "/var/log/sip/clf.log"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cl.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer cl.Stop() // drains queued records
//
//	_ = cl.Record(rec)
//
// # Write Modes
//
// By default Record only encodes and queues the record; a single worker
// goroutine appends queued records to the day file and syncs once per batch.
// With Config.Synchronous set, Record appends and syncs before returning and
// reports I/O errors to the caller.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for defaults) and
// pass it via [WithEventHandler] to observe state changes and failed writes.
// Events are called synchronously; implementations should return quickly.
//
// # Lifecycle States
//
//   - StateStopped: not running, ready to start
//   - StateStarting: initializing plugins and writers
//   - StateRunning: accepting records
//   - StateStopping: draining queued records
//   - StateCrashed: a plugin failed to start or shutdown timed out
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package commonlog
