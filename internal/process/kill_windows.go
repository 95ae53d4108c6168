//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillTree kills the browser process and every child it spawned.
// /F forces termination, /T includes the process tree.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort: the launcher's own Kill already ran.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is an int
}
