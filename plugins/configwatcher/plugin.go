// Package configwatcher reloads clflog settings when the config file changes.
// It watches the directory holding the file, waits for writes to settle and
// calls a reload callback when the file content actually changed.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/clflog/pkg/commonlog"
	"github.com/bft-labs/clflog/pkg/log"
)

// DefaultDebounceDelay is how long the file must stay quiet before a reload.
const DefaultDebounceDelay = 100 * time.Millisecond

// ReloadFunc is called with the config file path after it changed.
// A returned error is logged and the watcher keeps running.
type ReloadFunc func(ctx context.Context, path string) error

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the config file to watch. The watcher is disabled when empty.
	Path string

	// DebounceDelay groups bursts of events into one reload.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// OnChange is called after the file changed.
	OnChange ReloadFunc
}

// DefaultConfig returns a Config with the default debounce delay.
func DefaultConfig() Config {
	return Config{DebounceDelay: DefaultDebounceDelay}
}

// Plugin watches one config file.
type Plugin struct {
	path     string
	delay    time.Duration
	onChange ReloadFunc

	logger  log.Logger
	cancel  context.CancelFunc
	done    sync.WaitGroup
	reloads atomic.Uint64

	// digest of the content last handed to onChange; owned by the loop.
	digest uint64
}

// New creates a config watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	return &Plugin{
		path:     cfg.Path,
		delay:    cfg.DebounceDelay,
		onChange: cfg.OnChange,
		logger:   log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching. It fails if the directory of the config file
// cannot be watched.
func (p *Plugin) Initialize(ctx context.Context, cfg commonlog.PluginConfig) error {
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	if p.path == "" || p.onChange == nil {
		p.logger.Warn("config watcher disabled: no config file or reload callback")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors save by replacing the file, which drops a watch on the file.
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		_ = w.Close()
		return err
	}
	p.digest, _ = digest(p.path)

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done.Add(1)
	go p.loop(loopCtx, w)

	p.logger.Info("watching config file", log.String("path", p.path))
	return nil
}

// Shutdown stops watching and waits for a running reload to return.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.done.Wait()
	return nil
}

// Reloads returns how many times the reload callback has been called.
func (p *Plugin) Reloads() uint64 {
	return p.reloads.Load()
}

var _ commonlog.Plugin = (*Plugin)(nil)
