package commonlog

import (
	"time"

	"github.com/bft-labs/clflog/pkg/log"
	"github.com/bft-labs/clflog/pkg/rotate"
)

// Option configures optional behavior of CommonLog.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	plugins      []Plugin
	resolverOpts []rotate.Option
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for CommonLog events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin. Plugins are initialized in registration
// order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithClock sets the clock used to resolve today's file.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.resolverOpts = append(o.resolverOpts, rotate.WithClock(now))
	}
}
