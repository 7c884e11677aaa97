// Package collector receives encoded records over UDP and hands them to a
// Recorder. Each datagram carries exactly one record.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/bft-labs/clflog/internal/domain"
	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/lifecycle"
	"github.com/bft-labs/clflog/pkg/log"
)

// MaxDatagram is the largest datagram read.
const MaxDatagram = 64 << 10

// Recorder persists decoded records.
type Recorder interface {
	Record(rec *clf.Record) error
}

// Stats counts datagrams seen by a Collector.
type Stats struct {
	Received uint64
	Recorded uint64
	Dropped  uint64
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(c *Collector) { c.logger = logger.With(log.String("component", "collector")) }
}

// WithBackoff sets the delays applied after consecutive read errors.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Collector) { c.backoff = lifecycle.NewBackoff(initial, max) }
}

// Collector reads datagrams from a packet connection.
type Collector struct {
	conn    net.PacketConn
	rec     Recorder
	logger  log.Logger
	backoff *lifecycle.Backoff

	received atomic.Uint64
	recorded atomic.Uint64
	dropped  atomic.Uint64
}

// New returns a collector reading from conn. The collector owns conn.
func New(conn net.PacketConn, rec Recorder, opts ...Option) *Collector {
	c := &Collector{
		conn:    conn,
		rec:     rec,
		logger:  log.NewNoopLogger(),
		backoff: lifecycle.NewBackoff(10*time.Millisecond, time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listen opens a UDP socket on addr and returns a collector for it.
func Listen(addr string, rec Recorder, opts ...Option) (*Collector, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return New(conn, rec, opts...), nil
}

// Addr returns the local address.
func (c *Collector) Addr() net.Addr {
	return c.conn.LocalAddr()
}

// Serve reads datagrams until ctx ends or the recorder stops accepting
// records. Malformed datagrams are logged and dropped. The connection is
// closed when Serve returns.
func (c *Collector) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer func() {
		stop()
		_ = c.conn.Close()
	}()

	c.logger.Info("collector listening", log.String("addr", c.Addr().String()))

	buf := make([]byte, MaxDatagram)
	for {
		n, from, err := c.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			c.logger.Warn("read datagram failed", log.Err(err), log.Duration("backoff", c.backoff.Current()))
			if c.backoff.Wait(ctx) != nil {
				return nil
			}
			continue
		}
		c.backoff.Reset()
		c.received.Add(1)

		rec, err := decode(buf[:n])
		if err != nil {
			c.dropped.Add(1)
			c.logger.Warn("dropping malformed datagram",
				log.String("from", from.String()),
				log.Int("bytes", n),
				log.Err(err))
			continue
		}

		if err := c.rec.Record(rec); err != nil {
			c.dropped.Add(1)
			if errors.Is(err, domain.ErrClosed) || errors.Is(err, domain.ErrNotRunning) {
				return err
			}
			c.logger.Error("record failed", log.Err(err))
			continue
		}
		c.recorded.Add(1)
	}
}

// Stats returns the datagram counters.
func (c *Collector) Stats() Stats {
	return Stats{
		Received: c.received.Load(),
		Recorded: c.recorded.Load(),
		Dropped:  c.dropped.Load(),
	}
}

func decode(b []byte) (*clf.Record, error) {
	n, err := clf.Length(b)
	if err != nil {
		return nil, err
	}
	if len(b) < n {
		return nil, fmt.Errorf("%w: truncated datagram (%d of %d bytes)", clf.ErrFormat, len(b), n)
	}
	return clf.Unmarshal(b[:n])
}
