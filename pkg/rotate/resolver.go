package rotate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bft-labs/clflog/internal/domain"
)

// dayLayout is the date part of a file name.
const dayLayout = "20060102"

// Default naming used when a Layout leaves a part empty.
const (
	DefaultName      = "clf"
	DefaultSeparator = "-"
	DefaultExtension = ".log"
)

// Layout describes where day files live and how they are named.
type Layout struct {
	Dir       string
	Name      string
	Separator string
	Extension string
}

// ParseTemplate decomposes a file path used as a naming template.
// "/var/log/clf.log" yields Dir "/var/log", Name "clf" and Extension ".log".
// A path ending in a separator or naming an existing directory is taken as
// the directory with default naming.
func ParseTemplate(path string) Layout {
	l := Layout{Separator: DefaultSeparator}
	if strings.HasSuffix(path, string(filepath.Separator)) || isDir(path) {
		l.Dir = filepath.Clean(path)
		return l
	}
	l.Dir = filepath.Dir(path)
	base := filepath.Base(path)
	l.Extension = filepath.Ext(base)
	l.Name = strings.TrimSuffix(base, l.Extension)
	return l
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (l *Layout) setDefaults() {
	if l.Dir == "" {
		l.Dir = "."
	}
	if l.Name == "" {
		l.Name = DefaultName
	}
	if l.Extension == "" {
		l.Extension = DefaultExtension
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the function used to read the current time.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver maps timestamps to day files.
type Resolver struct {
	layout Layout
	now    func() time.Time
}

// New returns a resolver for l, creating the directory if needed.
// It fails with domain.ErrStorageUnavailable when the directory cannot be
// created.
func New(l Layout, opts ...Option) (*Resolver, error) {
	l.setDefaults()
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	r := &Resolver{layout: l, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Layout returns the resolved naming layout.
func (r *Resolver) Layout() Layout {
	return r.layout
}

// Pattern returns a glob matching every day file name of this layout.
func (r *Resolver) Pattern() string {
	return r.layout.Name + r.layout.Separator + "*" + r.layout.Extension
}

// Path returns the day file path for the UTC day holding t.
func (r *Resolver) Path(t time.Time) string {
	name := r.layout.Name + r.layout.Separator + t.UTC().Format(dayLayout) + r.layout.Extension
	return filepath.Join(r.layout.Dir, name)
}

// ParseDay extracts the day from a file name of this layout.
func (r *Resolver) ParseDay(name string) (time.Time, bool) {
	prefix := r.layout.Name + r.layout.Separator
	name = filepath.Base(name)
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, r.layout.Extension) {
		return time.Time{}, false
	}
	day := strings.TrimSuffix(strings.TrimPrefix(name, prefix), r.layout.Extension)
	t, err := time.ParseInLocation(dayLayout, day, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Rotate returns the file for ts with its full day window.
func (r *Resolver) Rotate(ts int64) File {
	begin, end := dayBounds(ts)
	return File{Path: r.Path(time.UnixMilli(ts)), Begin: begin, End: end}
}

// Today returns the file for the current day.
func (r *Resolver) Today() File {
	return r.Rotate(r.now().UnixMilli())
}

// Range returns one file per UTC day between begin and end, in chronological
// order. A zero time means the bound is omitted: with both omitted only today's
// file is returned, and with one omitted the single file of the given day is
// clipped to that bound. The first and last files carry the exact bounds.
func (r *Resolver) Range(begin, end time.Time) []File {
	switch {
	case begin.IsZero() && end.IsZero():
		return []File{r.Today()}
	case end.IsZero():
		f := r.Rotate(begin.UnixMilli())
		f.Begin = begin.UnixMilli()
		return []File{f}
	case begin.IsZero():
		f := r.Rotate(end.UnixMilli())
		f.End = end.UnixMilli()
		return []File{f}
	}

	b, e := begin.UnixMilli(), end.UnixMilli()
	if b > e {
		b, e = e, b
	}
	var files []File
	for day := dayStart(b); day.UnixMilli() <= e; day = day.AddDate(0, 0, 1) {
		f := r.Rotate(day.UnixMilli())
		if f.Begin < b {
			f.Begin = b
		}
		if f.End > e {
			f.End = e
		}
		files = append(files, f)
	}
	return files
}
