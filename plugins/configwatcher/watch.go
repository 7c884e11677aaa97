package configwatcher

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/clflog/pkg/log"
)

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// loop reads watcher events. A relevant event arms the debounce timer;
// the reload runs when the timer fires, on this goroutine.
func (p *Plugin) loop(ctx context.Context, w *fsnotify.Watcher) {
	defer p.done.Done()
	defer w.Close()

	name := filepath.Base(p.path)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) == name && ev.Op&relevantOps != 0 {
				rearm(timer, p.delay)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))

		case <-timer.C:
			p.reload(ctx)
		}
	}
}

// rearm restarts t, discarding a fire that was not consumed yet.
func rearm(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (p *Plugin) reload(ctx context.Context) {
	sum, err := digest(p.path)
	if err != nil {
		p.logger.Warn("config file unavailable", log.Err(err))
		return
	}
	if sum == p.digest {
		p.logger.Debug("config file unchanged", log.String("path", p.path))
		return
	}

	p.reloads.Add(1)
	if err := p.onChange(ctx, p.path); err != nil {
		p.logger.Error("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}
	p.digest = sum
	p.logger.Info("configuration reloaded", log.String("path", p.path))
}

// digest returns a checksum of the file content.
func digest(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64(), nil
}
