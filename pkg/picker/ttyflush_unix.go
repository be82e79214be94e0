//go:build !windows
// +build !windows

package picker

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// flushTTYInput best-effort flushes any pending unread input bytes queued for
// the controlling terminal (e.g. terminal integration replies like OSC/DSR
// that can otherwise be consumed as "typed characters" by the next
// interactive program).
//
// It never returns an error; callers treat it as an opportunistic hygiene
// step right before handing the terminal to ssh. If /dev/tty isn't available
// (non-interactive), this becomes a no-op.
func flushTTYInput() {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	if fd < 0 {
		return
	}

	// tcflush(fd, TCIFLUSH) via ioctl(TCFLSH). TCFLSH is 0x540B on both
	// Linux and Darwin; TCIFLUSH (0) flushes unread input.
	const TCFLSH = 0x540B
	_, _, _ = unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(TCFLSH), uintptr(unix.TCIFLUSH))

	// Short non-blocking drain window to catch bytes that arrive immediately
	// after the flush (common with OSC/CPR reply bursts).
	_ = unix.SetNonblock(fd, true)
	defer func() { _ = unix.SetNonblock(fd, false) }()

	deadline := time.Now().Add(200 * time.Millisecond)
	buf := make([]byte, 512)

	for time.Now().Before(deadline) {
		n, rerr := unix.Read(fd, buf)
		if n > 0 {
			// Consumed bytes; extend slightly to catch the rest of a burst.
			deadline = time.Now().Add(75 * time.Millisecond)
			continue
		}
		if rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK {
			break
		}
		break
	}
}
