//go:build unix

package video

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the encoder in its own process group and kills the
// whole group on cancellation, so helper processes do not outlive it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
