package commonlog

import (
	"context"

	"github.com/bft-labs/clflog/pkg/log"
	"github.com/bft-labs/clflog/pkg/rotate"
)

// Plugin is an optional component started and stopped with a CommonLog.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize starts the plugin. Background work must stop when ctx is
	// canceled or Shutdown is called.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is passed to plugins on Initialize.
type PluginConfig struct {
	// Layout is the resolved naming layout of the day files.
	Layout rotate.Layout

	// Resolver maps timestamps and file names to day files.
	Resolver *rotate.Resolver

	Logger log.Logger
}
