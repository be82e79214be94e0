package picker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Per-host daily session transcripts, written when the config enables
// log_sessions. Layout:
//
//	~/.config/tailssh/logs/<host>/YYYY-MM-DD.log
//
// Transcript files append raw PTY output; AppendSessionNote adds one-line
// timestamped markers (connect/disconnect).

const (
	logsSubdir   = "logs"
	logExt       = ".log"
	logDayFormat = "2006-01-02"
)

// SessionLogsBaseDir resolves the base transcript directory. baseDir
// overrides the default (used by tests); empty means the config dir.
func SessionLogsBaseDir(baseDir string) (string, error) {
	if strings.TrimSpace(baseDir) != "" {
		return strings.TrimSpace(baseDir), nil
	}
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logsSubdir), nil
}

// SessionLogPath returns the transcript path for host on day t.
// If t is zero, time.Now() is used.
func SessionLogPath(host, baseDir string, t time.Time) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("host is required")
	}
	if t.IsZero() {
		t = time.Now()
	}
	base, err := SessionLogsBaseDir(baseDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, sanitizeHostToFilename(host), t.Format(logDayFormat)+logExt), nil
}

// EnsureSessionLog creates the transcript file (and parents, 0700/0600) if
// missing and returns its path.
func EnsureSessionLog(host, baseDir string, t time.Time) (string, error) {
	p, err := SessionLogPath(host, baseDir, t)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("mkdir logs dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create log file: %w", err)
	}
	_ = f.Close()
	return p, nil
}

// AppendSessionNote appends a timestamped marker line to the host's
// transcript. Best-effort callers ignore the error.
func AppendSessionNote(host, baseDir string, t time.Time, note string) error {
	if t.IsZero() {
		t = time.Now()
	}
	p, err := EnsureSessionLog(host, baseDir, t)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log for append: %w", err)
	}
	defer f.Close()

	record := fmt.Sprintf("%s %s\n", t.Format(time.RFC3339), strings.TrimRight(note, "\r\n"))
	if _, err := f.WriteString(record); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// sanitizeHostToFilename maps a hostname to a safe directory name.
// Alphanumerics, '-' and '.' pass through; everything else becomes '_'.
func sanitizeHostToFilename(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
