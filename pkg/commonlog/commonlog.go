package commonlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/clflog/internal/domain"
	"github.com/bft-labs/clflog/pkg/clf"
	"github.com/bft-labs/clflog/pkg/lifecycle"
	"github.com/bft-labs/clflog/pkg/log"
	"github.com/bft-labs/clflog/pkg/rotate"
	"github.com/bft-labs/clflog/pkg/storage"
)

// CommonLog writes records to rotating day files. Use New() to create an
// instance, then Start() to begin accepting records.
type CommonLog struct {
	config    Config
	lifecycle *lifecycle.Manager
	emitter   *eventEmitterWrapper
	resolver  *rotate.Resolver
	writer    *storage.RotatingWriter
	logger    log.Logger
	plugins   []Plugin

	mu      sync.RWMutex
	async   *storage.AsyncWriter
	closing bool
}

// New creates a CommonLog in StateStopped. It fails with
// domain.ErrInvalidConfig for an invalid configuration and with
// domain.ErrStorageUnavailable when the storage directory cannot be created.
func New(cfg Config, opts ...Option) (*CommonLog, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}

	resolver, err := rotate.New(cfg.Layout(), o.resolverOpts...)
	if err != nil {
		return nil, err
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	return &CommonLog{
		config:    cfg,
		lifecycle: lifecycle.NewManager(o.logger, emitter),
		emitter:   emitter,
		resolver:  resolver,
		writer:    storage.NewRotatingWriter(resolver, o.logger.With(log.String("component", "writer"))),
		logger:    o.logger,
		plugins:   o.plugins,
	}, nil
}

// Start initializes plugins and begins accepting records.
// The provided context bounds the lifetime of the instance: canceling it
// drains and closes the writer as Stop does.
func (c *CommonLog) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx := c.lifecycle.Begin(ctx)

	for i, p := range c.plugins {
		pluginCfg := PluginConfig{
			Layout:   c.resolver.Layout(),
			Resolver: c.resolver,
			Logger:   c.logger.With(log.String("plugin", p.Name())),
		}
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			c.lifecycle.Cancel()
			c.shutdownPlugins(c.plugins[:i])
			_ = c.lifecycle.TransitionTo(lifecycle.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		c.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	var async *storage.AsyncWriter
	if !c.config.Synchronous {
		async = storage.NewAsyncWriter(c.writer,
			storage.WithAsyncLogger(c.logger.With(log.String("component", "writer"))),
			storage.WithErrorHandler(c.emitter.onWriteError),
		)
	}
	c.async = async
	c.closing = false

	c.lifecycle.Go(func() {
		<-runCtx.Done()

		// Waits for in-flight Record calls; later ones are refused.
		c.mu.Lock()
		c.closing = true
		c.mu.Unlock()

		var err error
		if async != nil {
			err = async.Close()
		} else {
			err = c.writer.Close()
		}
		if err != nil {
			c.logger.Error("failed to close log file", log.Err(err))
		}
	})

	return c.lifecycle.TransitionTo(lifecycle.StateRunning, "writer started")
}

// Record persists rec. In the default mode rec is queued and written in the
// background; in synchronous mode it is written and synced before Record
// returns. rec must not be modified afterwards.
func (c *CommonLog) Record(rec *clf.Record) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closing || c.lifecycle.State() != lifecycle.StateRunning {
		if c.async != nil {
			return domain.ErrClosed
		}
		return domain.ErrNotRunning
	}
	if c.async != nil {
		return c.async.Submit(rec)
	}
	return c.writer.Write(rec)
}

// Search returns the records between begin and end from the day files.
// Zero times are omitted bounds; with both omitted today's file is read.
func (c *CommonLog) Search(begin, end time.Time) ([]*clf.Record, error) {
	return storage.Search(c.resolver, begin, end)
}

// Stop drains queued records, closes the open file and shuts down plugins.
// Returns domain.ErrShutdownTimeout if draining takes longer than
// Config.ShutdownTimeout.
func (c *CommonLog) Stop() error {
	c.mu.Lock()
	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lifecycle.Cancel()
	c.mu.Unlock()

	err := c.lifecycle.Wait(c.config.ShutdownTimeout)
	c.shutdownPlugins(c.plugins)

	if err != nil {
		_ = c.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
		return err
	}
	_ = c.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	return nil
}

// shutdownPlugins stops plugins in reverse order.
func (c *CommonLog) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			c.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *CommonLog) Status() State {
	return c.lifecycle.State()
}

// Resolver returns the day file resolver.
func (c *CommonLog) Resolver() *rotate.Resolver {
	return c.resolver
}

// Stats returns the background writer counters. It is zero in synchronous
// mode or before Start.
func (c *CommonLog) Stats() storage.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.async == nil {
		return storage.Stats{}
	}
	return c.async.Stats()
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"clf":       {clf.Version, clf.MinCompatibleVersion},
		"rotate":    {rotate.Version, rotate.MinCompatibleVersion},
		"storage":   {storage.Version, storage.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
