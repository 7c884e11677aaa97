package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/valyala/fastjson"

	"github.com/bft-labs/clflog/internal/recordjson"
	"github.com/bft-labs/clflog/pkg/commonlog"
	"github.com/bft-labs/clflog/pkg/log"
)

// maxLine bounds one JSON line; bodies are carried inline as Base64.
const maxLine = 4 << 20

var parsers fastjson.ParserPool

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Write records read as JSON lines",
		Long: "import reads one JSON record per line from file, or from stdin when no file\n" +
			"is given, and writes each record synchronously. Lines that cannot be parsed\n" +
			"are reported and skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			n, err := a.importRecords(in)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", n)
			return err
		},
	}
}

func (a *app) importRecords(in io.Reader) (int, error) {
	cfg := a.cfg.CommonLog()
	cfg.Synchronous = true
	cl, err := commonlog.New(cfg, commonlog.WithLogger(a.log))
	if err != nil {
		return 0, err
	}
	if err := cl.Start(context.Background()); err != nil {
		return 0, err
	}

	p := parsers.Get()
	defer parsers.Put(p)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64<<10), maxLine)

	var imported, failed, line int
	var writeErr error
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		rec, err := recordjson.ParseBytes(p, b)
		if err != nil {
			failed++
			a.log.Warn("skipping line", log.Int("line", line), log.Err(err))
			continue
		}
		if err := cl.Record(rec); err != nil {
			writeErr = fmt.Errorf("line %d: %w", line, err)
			break
		}
		imported++
	}

	stopErr := cl.Stop()
	switch {
	case writeErr != nil:
		return imported, writeErr
	case sc.Err() != nil:
		return imported, fmt.Errorf("read input: %w", sc.Err())
	case stopErr != nil:
		return imported, stopErr
	case failed > 0:
		return imported, fmt.Errorf("%d of %d lines could not be parsed", failed, failed+imported)
	}
	return imported, nil
}
