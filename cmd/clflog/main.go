package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/clflog/internal/applog"
	"github.com/bft-labs/clflog/internal/cliconfig"
	"github.com/bft-labs/clflog/pkg/log"
)

const longHelp = `
clflog records SIP transaction events in the Common Log Format (RFC 6873).

Records are written to one file per UTC day and can be searched by time
range. The serve command collects encoded records sent over UDP; import
reads JSON lines. Expired day files are removed after the retention period.

Configuration is read from $HOME/.clflog/config.toml (or --config), then
CLFLOG_* environment variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  clflog serve --path /var/log/sip/clf.log --listen 0.0.0.0:5090
  clflog search --from 2012-02-09T00:00:00Z --to 2012-02-10T00:00:00Z --format csv
  clflog import records.jsonl
  clflog bench --records 100000 --producers 8
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the configuration shared by all commands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string

	logger *applog.Logger
	log    log.Logger
}

func newApp() *app {
	return &app{cfg: cliconfig.DefaultConfig(), log: log.NewNoopLogger()}
}

// configFile returns the config file in use, or "" if there is none.
func (a *app) configFile() string {
	p := a.cfgPath
	if p == "" {
		p = cliconfig.DefaultConfigPath()
	}
	if p == "" || !cliconfig.FileExists(p) {
		return ""
	}
	return p
}

// load applies the config file and the environment below the flags that
// were set explicitly, then builds the application logger.
func (a *app) load(cmd *cobra.Command) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if a.cfgPath != "" && !cliconfig.FileExists(a.cfgPath) {
		return fmt.Errorf("config file %s not found", a.cfgPath)
	}
	if p := a.configFile(); p != "" {
		fc, err := cliconfig.LoadFileConfig(p)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	level, _ := a.cfg.Level()
	logger, err := applog.New(applog.Config{
		Level:   level,
		Console: cmd.ErrOrStderr(),
		File:    a.cfg.LogFile,
		UDP:     a.cfg.LogUDP,
	})
	if err != nil {
		return fmt.Errorf("open application log: %w", err)
	}
	a.logger = logger
	a.log = logger.Adapter()

	cmd.SilenceUsage = true
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
		a.logger = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "clflog",
		Short:   "Record and search SIP transaction events in Common Log Format",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.clflog/config.toml)")
	f.StringVar(&a.cfg.Path, "path", a.cfg.Path, "log directory or file naming template")
	f.StringVar(&a.cfg.Name, "name", a.cfg.Name, "day file name prefix (overrides --path)")
	f.StringVar(&a.cfg.Separator, "separator", a.cfg.Separator, "separator between name and date")
	f.StringVar(&a.cfg.Extension, "extension", a.cfg.Extension, "day file extension (overrides --path)")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "application log level")
	f.StringVar(&a.cfg.LogFile, "log-file", a.cfg.LogFile, "application log file template, rotated daily")
	f.StringVar(&a.cfg.LogUDP, "log-udp", a.cfg.LogUDP, "host:port receiving application log lines")
	f.DurationVar(&a.cfg.ShutdownTimeout, "shutdown-timeout", a.cfg.ShutdownTimeout, "time to wait for queued records on shutdown")
	f.IntVar(&a.cfg.RetentionDays, "retention-days", a.cfg.RetentionDays, "days to keep day files (0 disables cleanup)")
	f.DurationVar(&a.cfg.CleanupInterval, "cleanup-interval", a.cfg.CleanupInterval, "interval between cleanup passes")

	root.AddCommand(
		newServeCmd(a),
		newSearchCmd(a),
		newImportCmd(a),
		newBenchCmd(a),
		newCleanCmd(a),
	)
	return root
}

func main() {
	a := newApp()
	root := newRootCmd(a)
	err := root.Execute()
	a.close()
	if err != nil {
		out := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		out.Error().Err(err).Msg("clflog")
		os.Exit(1)
	}
}
