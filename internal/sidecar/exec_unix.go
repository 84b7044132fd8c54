//go:build !windows

package sidecar

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttrs puts the worker in its own process group so signals reach
// anything it forks.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (c *execChild) Interrupt() error {
	return c.signal(unix.SIGTERM)
}

func (c *execChild) Kill() error {
	return c.signal(unix.SIGKILL)
}

func (c *execChild) signal(sig unix.Signal) error {
	if c.exited() {
		return nil
	}
	err := unix.Kill(-c.pid, sig)
	if errors.Is(err, unix.ESRCH) {
		// group already gone; fall back to the leader in case setpgid raced
		err = c.cmd.Process.Signal(sig)
	}
	if err == nil || errors.Is(err, os.ErrProcessDone) || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
