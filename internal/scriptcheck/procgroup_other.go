//go:build !unix

package scriptcheck

import "os/exec"

// setProcessGroup is a no-op where process groups are unavailable; the
// default CommandContext cancellation kills the direct child only.
func setProcessGroup(cmd *exec.Cmd) {}
