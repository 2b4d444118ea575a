//go:build !unix

package runner

import "os/exec"

// setProcessGroup is a no-op on platforms without process groups.
func setProcessGroup(*exec.Cmd) {}

// killProcessGroup kills the command itself.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
