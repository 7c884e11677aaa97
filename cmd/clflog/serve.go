package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/clflog/internal/cliconfig"
	"github.com/bft-labs/clflog/internal/collector"
	"github.com/bft-labs/clflog/pkg/commonlog"
	"github.com/bft-labs/clflog/pkg/log"
	"github.com/bft-labs/clflog/plugins/configwatcher"
	"github.com/bft-labs/clflog/plugins/logcleanup"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Collect encoded records sent over UDP",
		Long: "serve listens for UDP datagrams each carrying one encoded record and writes\n" +
			"them to the day files. SIGINT or SIGTERM stops the collector and drains the writer.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.cfg.Listen, "listen", a.cfg.Listen, "UDP address to listen on")
	cmd.Flags().BoolVar(&a.cfg.Synchronous, "sync", a.cfg.Synchronous, "write and sync each record before reading the next")
	return cmd
}

// stateLogger logs CommonLog events.
type stateLogger struct {
	log log.Logger
}

func (s stateLogger) OnStateChange(e commonlog.StateChangeEvent) {
	s.log.Debug("state changed",
		log.String("from", e.Previous.String()),
		log.String("to", e.Current.String()),
		log.String("reason", e.Reason))
}

func (s stateLogger) OnWriteError(e commonlog.WriteErrorEvent) {
	s.log.Error("write failed", log.Err(e.Error))
}

func (a *app) serve(ctx context.Context) error {
	opts := []commonlog.Option{
		commonlog.WithLogger(a.log),
		commonlog.WithEventHandler(stateLogger{a.log}),
	}

	var cleanup *logcleanup.Plugin
	if a.cfg.RetentionDays > 0 {
		cleanup = logcleanup.New(logcleanup.Config{
			CheckInterval:  a.cfg.CleanupInterval,
			RetentionDays:  a.cfg.RetentionDays,
			RunImmediately: true,
		})
		opts = append(opts, commonlog.WithPlugin(cleanup))
	}
	if p := a.configFile(); p != "" {
		wc := configwatcher.DefaultConfig()
		wc.Path = p
		wc.OnChange = a.reloader(cleanup)
		opts = append(opts, configwatcher.WithConfigWatcher(wc))
	}

	cl, err := commonlog.New(a.cfg.CommonLog(), opts...)
	if err != nil {
		return fmt.Errorf("create common log: %w", err)
	}
	if err := cl.Start(context.Background()); err != nil {
		return fmt.Errorf("start common log: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	col, err := collector.Listen(a.cfg.Listen, cl, collector.WithLogger(a.log))
	if err != nil {
		_ = cl.Stop()
		return err
	}
	serveErr := col.Serve(sigCtx)
	if sigCtx.Err() != nil {
		a.log.Info("received signal, stopping...")
	}

	st := col.Stats()
	a.log.Info("collector stopped",
		log.Uint64("received", st.Received),
		log.Uint64("recorded", st.Recorded),
		log.Uint64("dropped", st.Dropped))

	stopErr := cl.Stop()
	ws := cl.Stats()
	a.log.Info("writer drained",
		log.Uint64("written", ws.Written),
		log.Uint64("failed", ws.Failed),
		log.Uint64("batches", ws.Batches))
	return errors.Join(serveErr, stopErr)
}

// reloader re-reads the config file and applies the settings that can change
// while serving.
func (a *app) reloader(cleanup *logcleanup.Plugin) configwatcher.ReloadFunc {
	return func(_ context.Context, path string) error {
		fc, err := cliconfig.LoadFileConfig(path)
		if err != nil {
			return err
		}
		next := a.cfg
		if err := cliconfig.ApplyFileConfig(&next, fc, nil); err != nil {
			return err
		}
		if cleanup != nil && next.RetentionDays != cleanup.RetentionDays() {
			cleanup.SetRetentionDays(next.RetentionDays)
			a.log.Info("retention updated", log.Int("retention_days", cleanup.RetentionDays()))
		}
		return nil
	}
}
