//go:build !windows

package update

import (
	"os"
	"os/exec"
	"syscall"
)

// spawnDetached starts bin with args fully detached from this process:
// its own session, null stdio, and no wait. The child survives the
// parent exiting, which the helper relies on while it replaces the
// installation that launched it.
func spawnDetached(bin string, args ...string) error {
	cmd := exec.Command(bin, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err == nil {
		cmd.Stdin = devNull
		cmd.Stdout = devNull
		cmd.Stderr = devNull
		defer func() { _ = devNull.Close() }()
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child if it exits while we are still around; harmless if
	// we exit first since it runs in its own session.
	go func() { _ = cmd.Wait() }()
	return nil
}
