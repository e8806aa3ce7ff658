//go:build !windows

// Package process terminates browser process trees left behind by the
// rasterizers.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// Chrome's renderer and GPU helpers down with it.
func KillProcessGroup(pid int) {
	// Best-effort; the launcher's own Kill follows.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
