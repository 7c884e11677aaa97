package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/log"
	"github.com/bft-labs/clflog/pkg/rotate"
)

// RotatingWriter appends records to day files. It is safe for concurrent use.
type RotatingWriter struct {
	mu       sync.Mutex
	resolver *rotate.Resolver
	logger   log.Logger
	enc      *clf.Encoder
	current  rotate.File
	file     *os.File
}

// NewRotatingWriter creates a writer over the files of resolver.
// No file is opened until the first write.
func NewRotatingWriter(resolver *rotate.Resolver, logger log.Logger) *RotatingWriter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &RotatingWriter{
		resolver: resolver,
		logger:   logger,
		enc:      clf.NewEncoder(),
		current:  rotate.Empty,
	}
}

// Write encodes rec, appends it to its day file and syncs the file.
func (w *RotatingWriter) Write(rec *clf.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.append(rec.Timestamp, w.enc.Encode(rec)); err != nil {
		return err
	}
	return w.sync()
}

// Append writes an already encoded record with timestamp ts and syncs the file.
func (w *RotatingWriter) Append(ts int64, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.append(ts, data); err != nil {
		return err
	}
	return w.sync()
}

// appendBatch writes encoded records and syncs once at the end. Every entry
// is attempted; failures are reported through fail.
func (w *RotatingWriter) appendBatch(entries []entry, fail func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range entries {
		if err := w.append(e.ts, e.data); err != nil {
			fail(err)
		}
	}
	if err := w.sync(); err != nil {
		fail(err)
	}
}

// append writes data to the file of ts, rotating first when needed.
// Callers must hold w.mu.
func (w *RotatingWriter) append(ts int64, data []byte) error {
	if !w.current.Contains(ts) {
		if err := w.rotate(ts); err != nil {
			return err
		}
	}

	n, err := w.file.Write(data)
	if err != nil {
		path := w.current.Path
		w.closeFile()
		return fmt.Errorf("append %s (%d of %d bytes): %w", path, n, len(data), err)
	}
	return nil
}

func (w *RotatingWriter) rotate(ts int64) error {
	if err := w.closeFile(); err != nil {
		w.logger.Warn("failed to close rotated file", log.Err(err))
	}

	next := w.resolver.Rotate(ts)
	f, err := os.OpenFile(next.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", next.Path, err)
	}
	w.file = f
	w.current = next

	w.logger.Debug("rotated log file",
		log.String("path", next.Path),
		log.Int64("begin", next.Begin),
		log.Int64("end", next.End),
	)
	return nil
}

func (w *RotatingWriter) sync() error {
	if w.file == nil {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		path := w.current.Path
		w.closeFile()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return nil
}

// closeFile syncs and closes the open file, and forgets the current window so
// the next write re-resolves.
func (w *RotatingWriter) closeFile() error {
	f := w.file
	w.file = nil
	w.current = rotate.Empty
	if f == nil {
		return nil
	}
	syncErr := f.Sync()
	if err := f.Close(); err != nil {
		return err
	}
	return syncErr
}

// Sync flushes the open file to stable storage.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sync()
}

// Current returns the file currently open, or rotate.Empty.
func (w *RotatingWriter) Current() rotate.File {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Close syncs and closes the open file. The writer may be reused afterwards.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeFile()
}
