package main

import (
	"context"
	"fmt"
	"io"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"

	"github.com/bft-labs/clflog/pkg/rotate"
	"github.com/bft-labs/clflog/plugins/logcleanup"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove expired day files once",
		Long: "clean removes the day files last modified more than --retention-days ago.\n" +
			"Today's file is never removed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.clean(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) clean(ctx context.Context, out io.Writer) error {
	if a.cfg.RetentionDays == 0 {
		fmt.Fprintln(out, "cleanup disabled (retention-days is 0)")
		return nil
	}
	resolver, err := rotate.New(a.cfg.CommonLog().Layout())
	if err != nil {
		return err
	}
	p := logcleanup.New(logcleanup.Config{RetentionDays: a.cfg.RetentionDays})
	if err := p.Bind(resolver, a.log); err != nil {
		return err
	}
	res, err := p.Cleanup(ctx)
	fmt.Fprintf(out, "removed %d files, freed %s\n", len(res.Removed), bytefmt.ByteSize(res.Bytes))
	return err
}
