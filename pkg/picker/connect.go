package picker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// ConnectOptions controls how the ssh handoff happens.
type ConnectOptions struct {
	// ExecReplace replaces this process with ssh instead of running it as a
	// child. The caller cannot observe the exit status in this mode.
	ExecReplace bool

	// LogSessions tees the session through a PTY into a per-host daily
	// transcript (see sessionlog.go).
	LogSessions bool

	// LogBaseDir overrides the transcript directory (tests).
	LogBaseDir string
}

// BuildSSHCommand constructs the ssh argv for a peer. The mesh IP is the
// destination (hostnames may not resolve outside the tailnet's MagicDNS).
func BuildSSHCommand(cfg *Config, p Peer, username string, extra ...string) []string {
	dest := p.Addr
	if strings.TrimSpace(username) != "" {
		dest = strings.TrimSpace(username) + "@" + dest
	}
	argv := []string{cfg.EffectiveSSHCommand()}
	argv = append(argv, extra...)
	argv = append(argv, dest)
	return argv
}

// Connect launches ssh for the chosen peer and returns once it exits (or
// never, with ExecReplace). An *exec.ExitError propagates so the caller can
// mirror the remote session's exit code.
func Connect(cfg *Config, p Peer, username string, opts ConnectOptions, extra ...string) error {
	argv := BuildSSHCommand(cfg, p, username, extra...)

	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%s not found in PATH", argv[0])
	}

	// Drop any queued terminal-integration replies so they aren't delivered
	// to the remote shell as typed input.
	flushTTYInput()

	if opts.ExecReplace {
		restoreTerminalForHandoff()
		return syscall.Exec(bin, argv, os.Environ())
	}

	if opts.LogSessions {
		return runWithTranscript(bin, argv, p.Hostname, opts.LogBaseDir)
	}

	cmd := exec.Command(bin, argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// runWithTranscript runs ssh under a PTY, mirroring output to the user and
// appending it to the host's daily transcript.
//
// The PTY size must be seeded from the current terminal and kept in sync on
// SIGWINCH; otherwise wrapped invocations can end up 0x0 on the remote side,
// which breaks full-screen programs.
func runWithTranscript(bin string, argv []string, host, logBaseDir string) error {
	logPath, logErr := EnsureSessionLog(host, logBaseDir, time.Now())
	var logFile *os.File
	if logErr == nil {
		logFile, logErr = os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o600)
	}
	if logErr == nil {
		defer logFile.Close()
		_ = AppendSessionNote(host, logBaseDir, time.Now(), "--- session start ---")
	}

	cmd := exec.Command(bin, argv[1:]...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("pty start: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	// Seed PTY size from our current stdout terminal (best-effort).
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if cols, rows, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil && rows > 0 && cols > 0 {
			_ = pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
		}
	}
	startPTYResizeWatcher(ptmx)

	// Raw mode so keystrokes pass through unmangled; restored on return.
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		oldState, sErr := term.MakeRaw(fd)
		if sErr == nil {
			defer func() { _ = term.Restore(fd, oldState) }()
		}
	}

	// User input -> ssh PTY.
	go func() {
		_, _ = io.Copy(ptmx, os.Stdin)
	}()

	// ssh output -> user + transcript.
	var sink io.Writer = os.Stdout
	if logFile != nil {
		sink = io.MultiWriter(os.Stdout, logFile)
	}
	if _, cErr := io.Copy(sink, ptmx); cErr != nil && !isPTYEOF(cErr) {
		// PTY read errors past EOF are unusual but not fatal to Wait below.
		fmt.Fprintf(os.Stderr, "tailssh: pty read: %v\n", cErr)
	}

	waitErr := cmd.Wait()
	if logErr == nil {
		_ = AppendSessionNote(host, logBaseDir, time.Now(), "--- session end ---")
	}
	return waitErr
}

// isPTYEOF reports whether err is the normal end-of-session read error.
// Linux returns EIO from a PTY master once the slave side is closed.
func isPTYEOF(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var pe *os.PathError
	return errors.As(err, &pe)
}

// restoreTerminalForHandoff best-effort restores a sane terminal before
// exec-replacing the process with ssh: show cursor, reset attributes, and
// `stty sane` on the controlling tty when available. Failures are ignored.
func restoreTerminalForHandoff() {
	// CSI ? 25 h => show cursor; CSI 0 m => reset attributes.
	_, _ = fmt.Fprint(os.Stdout, "\033[?25h\033[0m")

	sttyPath := "/bin/stty"
	if _, err := os.Stat(sttyPath); err != nil {
		return
	}
	cmd := exec.Command(sttyPath, "sane")
	if tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0); err == nil {
		defer tty.Close()
		cmd.Stdin = tty
	} else {
		cmd.Stdin = os.Stdin
	}
	_ = cmd.Run()
}
