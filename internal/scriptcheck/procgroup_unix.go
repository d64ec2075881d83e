//go:build unix

package scriptcheck

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the command in its own process group and makes
// cancellation kill the whole group, so children spawned by the shell do not
// outlive a timed-out check.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
