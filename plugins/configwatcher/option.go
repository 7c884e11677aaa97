package configwatcher

import "github.com/bft-labs/clflog/pkg/commonlog"

// WithConfigWatcher returns a commonlog Option that enables config file
// watching.
//
// Usage:
//
//	cl, err := commonlog.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:     "/etc/clflog/clflog.toml",
//	        OnChange: reload,
//	    }),
//	)
func WithConfigWatcher(cfg Config) commonlog.Option {
	return commonlog.WithPlugin(New(cfg))
}
