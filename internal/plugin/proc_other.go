//go:build !unix

package plugin

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable.
// WaitDelay still bounds the wait on orphaned children.
func killProcessGroup(cmd *exec.Cmd) {}
