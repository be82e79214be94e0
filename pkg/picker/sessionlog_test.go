package picker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSessionLogPathLayout(t *testing.T) {
	base := t.TempDir()
	day := time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)

	p, err := SessionLogPath("Web1", base, day)
	if err != nil {
		t.Fatalf("SessionLogPath: %v", err)
	}
	want := filepath.Join(base, "web1", "2026-08-24.log")
	if p != want {
		t.Fatalf("path = %q, want %q", p, want)
	}
}

func TestSessionLogPathRequiresHost(t *testing.T) {
	if _, err := SessionLogPath("   ", t.TempDir(), time.Now()); err == nil {
		t.Fatal("blank host should error")
	}
}

func TestSanitizeHostToFilename(t *testing.T) {
	cases := map[string]string{
		"Web1":         "web1",
		"host.example": "host.example",
		"a b/c":        "a_b_c",
		"::":           "__",
		"":             "_",
	}
	for in, want := range cases {
		if got := sanitizeHostToFilename(in); got != want {
			t.Fatalf("sanitizeHostToFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAppendSessionNoteCreatesAndAppends(t *testing.T) {
	base := t.TempDir()
	day := time.Date(2026, 8, 24, 15, 4, 5, 0, time.UTC)

	if err := AppendSessionNote("web1", base, day, "--- session start ---"); err != nil {
		t.Fatalf("AppendSessionNote: %v", err)
	}
	if err := AppendSessionNote("web1", base, day, "--- session end ---\n"); err != nil {
		t.Fatalf("AppendSessionNote: %v", err)
	}

	p, err := SessionLogPath("web1", base, day)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "session start") || !strings.Contains(lines[1], "session end") {
		t.Fatalf("unexpected transcript:\n%s", data)
	}
	if !strings.HasPrefix(lines[0], "2026-08-24T") {
		t.Fatalf("marker not timestamped: %q", lines[0])
	}
}

func TestEnsureSessionLogIdempotent(t *testing.T) {
	base := t.TempDir()
	day := time.Now()

	p1, err := EnsureSessionLog("db2", base, day)
	if err != nil {
		t.Fatalf("first EnsureSessionLog: %v", err)
	}
	p2, err := EnsureSessionLog("db2", base, day)
	if err != nil {
		t.Fatalf("second EnsureSessionLog: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("paths differ: %q vs %q", p1, p2)
	}
	if _, err := os.Stat(p1); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}
