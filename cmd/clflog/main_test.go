package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/clflog/plugins/logcleanup"
)

// run executes the command line with HOME pointing at an empty directory so
// no user configuration is picked up.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	a := newApp()
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	a.close()
	return out.String(), err
}

const jsonLines = `{"timestamp":1328821953010,"type":"R","retransmission":"O","direction":"S","transport":"U","encryption":"U","cseq_number":1,"cseq_method":"INVITE","r_uri":"sip:192.0.2.10","call_id":"first@example.com","optional":[{"kind":"header","name":"Contact","value":"<sip:bob@192.0.2.4>"}]}

{"timestamp":1328821953020,"type":"r","cseq_number":1,"cseq_method":"INVITE","status":100,"call_id":"first@example.com"}
`

func TestImportThenSearch(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, jsonLines, "import", "--path", dir)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "imported 2 records") {
		t.Errorf("import output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "clf-20120209.log")); err != nil {
		t.Fatalf("day file missing: %v", err)
	}

	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"2012-02-09T21:12:33.010Z ROSUU 1 INVITE - ", "header Contact: <sip:bob@192.0.2.4>", " 100 "}},
		{"json", []string{`"call_id":"first@example.com"`, `"status":100`, `"kind":"header"`}},
		{"csv", []string{"timestamp,type,retransmission", "2012-02-09T21:12:33.01Z,R,O,S,U,U,1,INVITE,0,sip:192.0.2.10"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := run(t, "", "search", "--path", dir,
				"--from", "2012-02-09", "--to", "2012-02-09T23:59:59Z", "--format", tt.format)
			if err != nil {
				t.Fatalf("search error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
		})
	}
}

func TestImportReportsBadLines(t *testing.T) {
	dir := t.TempDir()
	input := jsonLines + "{not json}\n"

	out, err := run(t, input, "import", "--path", dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 lines") {
		t.Errorf("import error = %v, want parse failure summary", err)
	}
	if !strings.Contains(out, "imported 2 records") {
		t.Errorf("import output = %q", out)
	}
}

func TestSearchRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "", "search", "--path", dir, "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, "", "search", "--path", dir, "--from", "yesterday"); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "clflog.yaml")
	content := "path: " + dir + "\nname: sip\nseparator: _\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, jsonLines, "import", "--config", cfgPath); err != nil {
		t.Fatalf("import error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sip_20120209.log")); err != nil {
		t.Errorf("day file named by config missing: %v", err)
	}

	if _, err := run(t, "", "search", "--config", filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestBench(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "bench", "--path", dir, "--records", "50", "--producers", "3")
	if err != nil {
		t.Fatalf("bench error = %v", err)
	}
	if !strings.Contains(out, "submitted 50 records from 3 producers") || !strings.Contains(out, "wrote 50 records") {
		t.Errorf("bench output = %q", out)
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "clf-20000101.log")
	keep := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, keep} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		past := time.Now().Add(-90 * 24 * time.Hour)
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	out, err := run(t, "", "clean", "--path", dir, "--retention-days", "7")
	if err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if !strings.Contains(out, "removed 1 files") {
		t.Errorf("clean output = %q", out)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("expired day file still present")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}

	out, err = run(t, "", "clean", "--path", dir, "--retention-days", "0")
	if err != nil || !strings.Contains(out, "cleanup disabled") {
		t.Errorf("clean with retention 0 = %q, %v", out, err)
	}
}

func TestReloaderUpdatesRetention(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("retention_days = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newApp()
	cleanup := logcleanup.New(logcleanup.Config{RetentionDays: 30})
	if err := a.reloader(cleanup)(context.Background(), cfgPath); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if got := cleanup.RetentionDays(); got != 3 {
		t.Errorf("RetentionDays() = %d, want 3", got)
	}
}
