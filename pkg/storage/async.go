package storage

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/channels"

	"github.com/bft-labs/clflog/internal/domain"
	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/log"
)

// entry is an encoded record waiting in the queue.
type entry struct {
	ts   int64
	data []byte
}

// Stats holds AsyncWriter counters.
type Stats struct {
	Submitted uint64
	Written   uint64
	Failed    uint64
	Batches   uint64
}

// AsyncOption configures an AsyncWriter.
type AsyncOption func(*AsyncWriter)

// WithErrorHandler sets a callback invoked from the worker goroutine for every
// failed write or sync.
func WithErrorHandler(fn func(error)) AsyncOption {
	return func(a *AsyncWriter) { a.onError = fn }
}

// WithAsyncLogger sets the logger used by the worker.
func WithAsyncLogger(logger log.Logger) AsyncOption {
	return func(a *AsyncWriter) { a.logger = logger }
}

// AsyncWriter queues encoded records and writes them from a single worker
// goroutine. Submit never blocks on disk I/O.
type AsyncWriter struct {
	w       *RotatingWriter
	queue   *channels.InfiniteChannel
	logger  log.Logger
	onError func(error)

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	submitted atomic.Uint64
	written   atomic.Uint64
	failed    atomic.Uint64
	batches   atomic.Uint64
}

// NewAsyncWriter starts a worker writing through w.
func NewAsyncWriter(w *RotatingWriter, opts ...AsyncOption) *AsyncWriter {
	a := &AsyncWriter{
		w:      w,
		queue:  channels.NewInfiniteChannel(),
		logger: w.logger,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Submit encodes rec on the calling goroutine and queues it.
//
// Records submitted before Close are all written. Once Close has been called a
// record is not queued at all: Submit returns domain.ErrClosed.
func (a *AsyncWriter) Submit(rec *clf.Record) error {
	return a.SubmitEncoded(rec.Timestamp, clf.Marshal(rec))
}

// SubmitEncoded queues an encoded record. data must not be modified afterwards.
func (a *AsyncWriter) SubmitEncoded(ts int64, data []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return domain.ErrClosed
	}
	a.queue.In() <- entry{ts: ts, data: data}
	a.submitted.Add(1)
	return nil
}

// run blocks for the first queued entry, drains whatever else is queued, and
// writes the batch with a single sync. It returns once the queue is closed
// and empty.
func (a *AsyncWriter) run() {
	defer close(a.done)

	out := a.queue.Out()
	batch := make([]entry, 0, 64)
	for item := range out {
		batch = append(batch[:0], item.(entry))
	drain:
		for {
			select {
			case item, ok := <-out:
				if !ok {
					break drain
				}
				batch = append(batch, item.(entry))
			default:
				break drain
			}
		}
		a.write(batch)
	}
}

func (a *AsyncWriter) write(batch []entry) {
	var failed uint64
	a.w.appendBatch(batch, func(err error) {
		failed++
		a.logger.Error("failed to write records", log.Err(err), log.Int("batch", len(batch)))
		if a.onError != nil {
			a.onError(err)
		}
	})
	a.batches.Add(1)
	a.failed.Add(failed)
	if ok := uint64(len(batch)); ok > failed {
		a.written.Add(ok - failed)
	}
}

// Pending returns the number of queued entries not yet taken by the worker.
func (a *AsyncWriter) Pending() int {
	return a.queue.Len()
}

// Stats returns a snapshot of the writer counters. Failed counts write and
// sync errors, so Written is a lower bound once a sync has failed.
func (a *AsyncWriter) Stats() Stats {
	return Stats{
		Submitted: a.submitted.Load(),
		Written:   a.written.Load(),
		Failed:    a.failed.Load(),
		Batches:   a.batches.Load(),
	}
}

// Close stops accepting records, waits for every queued record to be written,
// then closes the underlying file. Repeated calls wait for the first one.
func (a *AsyncWriter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	a.queue.Close()
	a.mu.Unlock()

	<-a.done
	return a.w.Close()
}
