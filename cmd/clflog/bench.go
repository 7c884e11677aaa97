package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/commonlog"
	"github.com/bft-labs/clflog/pkg/rotate"
)

type benchOptions struct {
	records   int
	producers int
	udp       string
}

func newBenchCmd(a *app) *cobra.Command {
	o := benchOptions{records: 100000, producers: 4}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure write throughput with synthetic records",
		Long: "bench submits synthetic INVITE records from several producers. By default the\n" +
			"records go to the day files through the background writer; with --udp they are\n" +
			"sent as datagrams to a running collector.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.records <= 0 || o.producers <= 0 {
				return fmt.Errorf("records and producers must be positive")
			}
			return a.bench(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().IntVar(&o.records, "records", o.records, "number of records to write")
	cmd.Flags().IntVar(&o.producers, "producers", o.producers, "number of concurrent producers")
	cmd.Flags().StringVar(&o.udp, "udp", o.udp, "send to the collector at host:port instead of writing files")
	return cmd
}

// syntheticRecord returns an INVITE of a fresh dialog.
func syntheticRecord(ts int64, seq int64) *clf.Record {
	callID := uuid.NewString()
	r := &clf.Record{
		Timestamp:      ts,
		Type:           clf.Request,
		Retransmission: clf.Original,
		Direction:      clf.Received,
		Transport:      clf.UDP,
		Encryption:     clf.Unencrypted,
		CSeqNumber:     seq,
		CSeqMethod:     "INVITE",
		RURI:           "sip:bob@192.0.2.10",
		Destination:    "192.0.2.10:5060",
		Source:         "192.0.2.200:56485",
		To:             "sip:bob@192.0.2.10",
		From:           "sip:alice@example.com",
		FromTag:        callID[:8],
		CallID:         callID + "@example.com",
		ServerTxn:      "S" + callID[9:13],
		ClientTxn:      "C" + callID[14:18],
	}
	r.Add(clf.Header("Contact", "<sip:alice@192.0.2.200:56485>"))
	return r
}

// produce runs fn for n records split over p goroutines and returns the
// elapsed time.
func produce(n, p int, fn func(rec *clf.Record) error) (time.Duration, error) {
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		seq      atomic.Int64
	)
	start := time.Now()
	for i := 0; i < p; i++ {
		count := n / p
		if i < n%p {
			count++
		}
		wg.Add(1)
		go func(count int) {
			defer wg.Done()
			for j := 0; j < count; j++ {
				rec := syntheticRecord(time.Now().UnixMilli(), seq.Add(1))
				if err := fn(rec); err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
			}
		}(count)
	}
	wg.Wait()
	return time.Since(start), firstErr
}

func (a *app) bench(out io.Writer, o benchOptions) error {
	if o.udp != "" {
		return a.benchUDP(out, o)
	}

	cl, err := commonlog.New(a.cfg.CommonLog(), commonlog.WithLogger(a.log))
	if err != nil {
		return err
	}
	before := dayFileBytes(cl.Resolver())
	if err := cl.Start(context.Background()); err != nil {
		return err
	}

	start := time.Now()
	submitted, err := produce(o.records, o.producers, cl.Record)
	// Stop returns once the queue is drained.
	if stopErr := cl.Stop(); err == nil {
		err = stopErr
	}
	if err != nil {
		return err
	}
	total := time.Since(start)

	st := cl.Stats()
	written := dayFileBytes(cl.Resolver())
	if written >= before {
		written -= before
	}

	fmt.Fprintf(out, "submitted %d records from %d producers in %s (%.0f records/s)\n",
		st.Submitted, o.producers, submitted.Round(time.Millisecond), rate(st.Submitted, submitted))
	fmt.Fprintf(out, "wrote %d records in %d batches in %s (%.0f records/s), %s to %s\n",
		st.Written, st.Batches, total.Round(time.Millisecond), rate(st.Written, total),
		bytefmt.ByteSize(written), cl.Resolver().Today().Path)
	return nil
}

func (a *app) benchUDP(out io.Writer, o benchOptions) error {
	conn, err := net.Dial("udp", o.udp)
	if err != nil {
		return err
	}
	defer conn.Close()

	var sent atomic.Uint64
	elapsed, err := produce(o.records, o.producers, func(rec *clf.Record) error {
		n, err := conn.Write(clf.Marshal(rec))
		sent.Add(uint64(n))
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sent %d datagrams to %s in %s (%.0f records/s, %s/s)\n",
		o.records, o.udp, elapsed.Round(time.Millisecond),
		rate(uint64(o.records), elapsed), bytefmt.ByteSize(uint64(rate(sent.Load(), elapsed))))
	return nil
}

func rate(n uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// dayFileBytes returns the size of today's file.
func dayFileBytes(r *rotate.Resolver) uint64 {
	fi, err := os.Stat(r.Today().Path)
	if err != nil {
		return 0
	}
	return uint64(fi.Size())
}
