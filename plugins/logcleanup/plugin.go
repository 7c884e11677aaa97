// Package logcleanup removes expired day files of a common log.
// When enabled, it periodically deletes files older than the retention
// period, never touching the file of the current day.
package logcleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/bft-labs/clflog/pkg/commonlog"
	"github.com/bft-labs/clflog/pkg/log"
	"github.com/bft-labs/clflog/pkg/rotate"
)

// Defaults.
const (
	DefaultRetentionDays = 30
	DefaultCheckInterval = 24 * time.Hour
)

// Plugin implements expired log file cleanup.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	checkInterval  time.Duration
	retentionDays  int
	runImmediately bool
	now            func() time.Time

	// Runtime state
	resolver *rotate.Resolver
	pattern  glob.Glob
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Config holds configuration options for the cleanup plugin.
type Config struct {
	// CheckInterval is how often expired files are looked for.
	// Default: 24 hours
	CheckInterval time.Duration

	// RetentionDays is how long a file is kept after its last modification.
	// Default: 30
	RetentionDays int

	// RunImmediately if true, runs a cleanup pass on startup.
	RunImmediately bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval:  DefaultCheckInterval,
		RetentionDays:  DefaultRetentionDays,
		RunImmediately: true,
	}
}

// Result summarizes a cleanup pass.
type Result struct {
	Removed []string
	Bytes   uint64
}

// New creates a cleanup plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}

	return &Plugin{
		checkInterval:  cfg.CheckInterval,
		retentionDays:  cfg.RetentionDays,
		runImmediately: cfg.RunImmediately,
		now:            time.Now,
		logger:         log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "logcleanup"
}

// Initialize binds the plugin to the log files and starts the cleanup loop.
func (p *Plugin) Initialize(ctx context.Context, cfg commonlog.PluginConfig) error {
	if err := p.Bind(cfg.Resolver, cfg.Logger); err != nil {
		return err
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("log cleanup plugin initialized",
		log.String("pattern", cfg.Resolver.Pattern()),
		log.Int("retention_days", p.RetentionDays()),
	)

	p.wg.Add(1)
	go p.cleanupLoop(cleanupCtx)

	return nil
}

// Bind sets the files to clean without starting the loop. Use it to run
// Cleanup on demand.
func (p *Plugin) Bind(resolver *rotate.Resolver, logger log.Logger) error {
	if resolver == nil {
		return errors.New("logcleanup: no resolver configured")
	}
	pattern, err := glob.Compile(quotedPattern(resolver.Layout()))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolver = resolver
	p.pattern = pattern
	if logger != nil {
		p.logger = logger
	}
	return nil
}

func quotedPattern(l rotate.Layout) string {
	return glob.QuoteMeta(l.Name+l.Separator) + "*" + glob.QuoteMeta(l.Extension)
}

// Shutdown stops the cleanup loop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// SetRetentionDays changes the retention period for subsequent passes.
// Non-positive values are ignored.
func (p *Plugin) SetRetentionDays(days int) {
	if days <= 0 {
		return
	}
	p.mu.Lock()
	p.retentionDays = days
	p.mu.Unlock()
}

// RetentionDays returns the current retention period.
func (p *Plugin) RetentionDays() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.retentionDays
}

func (p *Plugin) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	if p.runImmediately {
		p.cleanupOnce(ctx)
	}

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanupOnce(ctx)
		}
	}
}

func (p *Plugin) cleanupOnce(ctx context.Context) {
	start := time.Now()
	res, err := p.Cleanup(ctx)
	if err != nil {
		p.logger.Error("log cleanup failed", log.Err(err))
	}
	if len(res.Removed) > 0 {
		p.logger.Info("log cleanup completed",
			log.Int("files", len(res.Removed)),
			log.Size("freed", res.Bytes),
			log.Duration("elapsed", time.Since(start)),
		)
	}
}

// Cleanup removes every day file last modified before the retention period.
// Today's file is never removed. Files are removed oldest first; a failed
// removal is reported in the returned error and the pass continues.
func (p *Plugin) Cleanup(ctx context.Context) (Result, error) {
	p.mu.RLock()
	resolver, pattern, days := p.resolver, p.pattern, p.retentionDays
	p.mu.RUnlock()

	var res Result
	if resolver == nil {
		return res, errors.New("logcleanup: not initialized")
	}

	dir := resolver.Layout().Dir
	ents, err := os.ReadDir(dir)
	if err != nil {
		return res, err
	}

	now := p.now()
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	today := resolver.Rotate(now.UnixMilli()).Path

	type candidate struct {
		path string
		mod  time.Time
		size int64
	}
	var expired []candidate
	for _, e := range ents {
		if e.IsDir() || !pattern.Match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if path == today {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			expired = append(expired, candidate{path: path, mod: info.ModTime(), size: info.Size()})
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].mod.Before(expired[j].mod) })

	var errs []error
	for _, c := range expired {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := os.Remove(c.path); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Removed = append(res.Removed, c.path)
		res.Bytes += uint64(c.size)
		p.logger.Debug("removed expired log file", log.String("path", c.path))
	}
	return res, errors.Join(errs...)
}

// Ensure Plugin implements commonlog.Plugin.
var _ commonlog.Plugin = (*Plugin)(nil)
