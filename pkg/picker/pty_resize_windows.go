//go:build windows
// +build windows

package picker

import "os"

// startPTYResizeWatcher is a no-op on Windows: SIGWINCH does not exist there,
// and referencing it anywhere in a Windows build fails compilation. Initial
// PTY sizing (if any) is handled elsewhere on a best-effort basis.
func startPTYResizeWatcher(_ *os.File) {
	// no-op
}
