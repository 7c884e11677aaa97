package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/bft-labs/clflog/internal/recordjson"
	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/rotate"
	"github.com/bft-labs/clflog/pkg/storage"
)

// timeLayouts are accepted by --from and --to. Times without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or YYYY-MM-DD)", s)
}

type searchOptions struct {
	from, to string
	format   string
}

func newSearchCmd(a *app) *cobra.Command {
	var o searchOptions
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print the records of a time range",
		Long: "search reads the day files covering --from and --to. Without bounds it reads\n" +
			"today's file; with one bound it reads that day from or up to the bound.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.search(cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVar(&o.from, "from", "", "start of the range (inclusive)")
	cmd.Flags().StringVar(&o.to, "to", "", "end of the range (inclusive)")
	cmd.Flags().StringVar(&o.format, "format", "text", "output format: text, json or csv")
	return cmd
}

func (a *app) search(out io.Writer, o searchOptions) error {
	begin, err := parseTime(o.from)
	if err != nil {
		return err
	}
	end, err := parseTime(o.to)
	if err != nil {
		return err
	}
	write, ok := formats[o.format]
	if !ok {
		return fmt.Errorf("unknown format %q", o.format)
	}

	resolver, err := rotate.New(a.cfg.CommonLog().Layout())
	if err != nil {
		return err
	}
	recs, searchErr := storage.Search(resolver, begin, end)
	if err := write(out, recs); err != nil {
		return err
	}
	return searchErr
}

var formats = map[string]func(io.Writer, []*clf.Record) error{
	"text": writeText,
	"json": writeJSON,
	"csv":  writeCSV,
}

func flagChar(b byte) byte {
	if b == 0 {
		return '-'
	}
	return b
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeText(out io.Writer, recs []*clf.Record) error {
	w := bufio.NewWriter(out)
	for _, r := range recs {
		fmt.Fprintf(w, "%s %c%c%c%c%c %d %s %s %s -> %s %s\n",
			time.UnixMilli(r.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z"),
			flagChar(r.Type), flagChar(r.Retransmission), flagChar(r.Direction),
			flagChar(r.Transport), flagChar(r.Encryption),
			r.CSeqNumber, orDash(r.CSeqMethod), statusText(r.Status),
			orDash(r.Source), orDash(r.Destination), orDash(r.CallID))
		for _, f := range r.Optional {
			fmt.Fprintf(w, "\t%s %s\n", f.Kind, optionalText(f))
		}
	}
	return w.Flush()
}

func statusText(status int) string {
	if status == 0 {
		return "-"
	}
	return fmt.Sprint(status)
}

func optionalText(f clf.OptionalField) string {
	var v string
	if f.Value.IsBinary() {
		v = fmt.Sprintf("<%d bytes>", len(f.Value.Bytes()))
	} else {
		v = strings.ReplaceAll(f.Value.String(), "\r\n", " ")
	}
	switch f.Kind {
	case clf.KindHeader:
		return f.Name + ": " + v
	case clf.KindBody:
		return f.Name + " " + v
	case clf.KindOther:
		return fmt.Sprintf("%d@%d %s", f.Tag, f.Vendor, v)
	}
	return v
}

func writeJSON(out io.Writer, recs []*clf.Record) error {
	w := bufio.NewWriter(out)
	var buf []byte
	for _, r := range recs {
		buf = recordjson.Append(buf[:0], r)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

// csvRecord is one CSV row. Optional fields are not exported.
type csvRecord struct {
	Timestamp      string `csv:"timestamp"`
	Type           string `csv:"type"`
	Retransmission string `csv:"retransmission"`
	Direction      string `csv:"direction"`
	Transport      string `csv:"transport"`
	Encryption     string `csv:"encryption"`
	CSeqNumber     int64  `csv:"cseq_number"`
	CSeqMethod     string `csv:"cseq_method"`
	Status         int    `csv:"status"`
	RURI           string `csv:"r_uri"`
	Destination    string `csv:"destination"`
	Source         string `csv:"source"`
	To             string `csv:"to"`
	ToTag          string `csv:"to_tag"`
	From           string `csv:"from"`
	FromTag        string `csv:"from_tag"`
	CallID         string `csv:"call_id"`
	ServerTxn      string `csv:"server_txn"`
	ClientTxn      string `csv:"client_txn"`
	Optional       int    `csv:"optional_fields"`
}

func writeCSV(out io.Writer, recs []*clf.Record) error {
	rows := make([]*csvRecord, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, &csvRecord{
			Timestamp:      time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339Nano),
			Type:           string(flagChar(r.Type)),
			Retransmission: string(flagChar(r.Retransmission)),
			Direction:      string(flagChar(r.Direction)),
			Transport:      string(flagChar(r.Transport)),
			Encryption:     string(flagChar(r.Encryption)),
			CSeqNumber:     r.CSeqNumber,
			CSeqMethod:     r.CSeqMethod,
			Status:         r.Status,
			RURI:           r.RURI,
			Destination:    r.Destination,
			Source:         r.Source,
			To:             r.To,
			ToTag:          r.ToTag,
			From:           r.From,
			FromTag:        r.FromTag,
			CallID:         r.CallID,
			ServerTxn:      r.ServerTxn,
			ClientTxn:      r.ClientTxn,
			Optional:       len(r.Optional),
		})
	}
	return gocsv.Marshal(rows, out)
}
