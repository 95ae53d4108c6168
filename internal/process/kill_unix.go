//go:build !windows

package process

import "syscall"

// KillTree kills the browser process and every child it spawned by
// signalling its process group.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort: the launcher's own Kill already ran.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
