package rotate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/clflog/internal/domain"
)

func newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(Layout{Dir: t.TempDir(), Name: "clf", Separator: "-", Extension: ".log"}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestRotateWindow(t *testing.T) {
	r := newResolver(t)
	ts := time.Date(2012, 2, 9, 21, 12, 33, 10e6, time.UTC).UnixMilli()

	f := r.Rotate(ts)
	if !f.Contains(ts) {
		t.Errorf("file %+v does not contain %d", f, ts)
	}
	if f.End-f.Begin != 86399999 {
		t.Errorf("window = %d, want 86399999", f.End-f.Begin)
	}
	if got := filepath.Base(f.Path); got != "clf-20120209.log" {
		t.Errorf("file name = %s, want clf-20120209.log", got)
	}
	if f.Contains(f.End+1) || f.Contains(f.Begin-1) {
		t.Error("window must be exactly one day")
	}
}

func TestEmptyContainsNothing(t *testing.T) {
	for _, ts := range []int64{0, 1, time.Now().UnixMilli()} {
		if Empty.Contains(ts) {
			t.Errorf("Empty.Contains(%d) = true", ts)
		}
	}
}

func TestRange(t *testing.T) {
	now := time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC)
	r := newResolver(t, WithClock(func() time.Time { return now }))

	begin := time.Date(2007, 12, 3, 10, 15, 30, 0, time.UTC)
	end := time.Date(2007, 12, 5, 12, 15, 30, 0, time.UTC)
	noon := time.Date(2007, 12, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		begin, end time.Time
		days       []string
		first      int64
		last       int64
	}{
		{
			name:  "three days",
			begin: begin, end: end,
			days:  []string{"20071203", "20071204", "20071205"},
			first: begin.UnixMilli(), last: end.UnixMilli(),
		},
		{
			name:  "swapped bounds",
			begin: end, end: begin,
			days:  []string{"20071203", "20071204", "20071205"},
			first: begin.UnixMilli(), last: end.UnixMilli(),
		},
		{
			name:  "same instant",
			begin: noon, end: noon,
			days:  []string{"20071204"},
			first: noon.UnixMilli(), last: noon.UnixMilli(),
		},
		{
			name:  "both omitted",
			days:  []string{"20200601"},
			first: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			last:  time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC).UnixMilli() - 1,
		},
		{
			name:  "begin only",
			begin: noon,
			days:  []string{"20071204"},
			first: noon.UnixMilli(),
			last:  time.Date(2007, 12, 5, 0, 0, 0, 0, time.UTC).UnixMilli() - 1,
		},
		{
			name:  "end only",
			end:   noon,
			days:  []string{"20071204"},
			first: time.Date(2007, 12, 4, 0, 0, 0, 0, time.UTC).UnixMilli(),
			last:  noon.UnixMilli(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := r.Range(tt.begin, tt.end)
			if len(files) != len(tt.days) {
				t.Fatalf("Range() returned %d files, want %d", len(files), len(tt.days))
			}
			for i, f := range files {
				want := "clf-" + tt.days[i] + ".log"
				if got := filepath.Base(f.Path); got != want {
					t.Errorf("file %d = %s, want %s", i, got, want)
				}
				if f.Begin > f.End {
					t.Errorf("file %d has begin %d > end %d", i, f.Begin, f.End)
				}
			}
			if files[0].Begin != tt.first {
				t.Errorf("first begin = %d, want %d", files[0].Begin, tt.first)
			}
			if files[len(files)-1].End != tt.last {
				t.Errorf("last end = %d, want %d", files[len(files)-1].End, tt.last)
			}
		})
	}
}

func TestParseTemplate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		path string
		want Layout
	}{
		{path: "/var/log/sip/access.clf", want: Layout{Dir: "/var/log/sip", Name: "access", Separator: "-", Extension: ".clf"}},
		{path: dir, want: Layout{Dir: dir, Separator: "-"}},
		{path: "/var/log/sip/", want: Layout{Dir: "/var/log/sip", Separator: "-"}},
	}

	for _, tt := range tests {
		if got := ParseTemplate(tt.path); got != tt.want {
			t.Errorf("ParseTemplate(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}
}

func TestParseDay(t *testing.T) {
	r := newResolver(t)
	f := r.Rotate(time.Date(2012, 2, 9, 0, 0, 0, 0, time.UTC).UnixMilli())

	day, ok := r.ParseDay(f.Path)
	if !ok || !day.Equal(f.Day()) {
		t.Errorf("ParseDay(%s) = %v, %v", f.Path, day, ok)
	}
	if _, ok := r.ParseDay("other-20120209.log"); ok {
		t.Error("ParseDay accepted a foreign name")
	}
	if _, ok := r.ParseDay("clf-2012020.log"); ok {
		t.Error("ParseDay accepted a malformed date")
	}
}

func TestNewStorageUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(Layout{Dir: filepath.Join(blocker, "sub")})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("New() error = %v, want ErrStorageUnavailable", err)
	}
}
