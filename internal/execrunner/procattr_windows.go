//go:build windows

package execrunner

import "os/exec"

// setProcAttr is a no-op on Windows; there is no process-group
// equivalent wired up here, so only the direct child is killed.
func setProcAttr(cmd *exec.Cmd) {}

// killProcessGroup kills the direct child process only.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
