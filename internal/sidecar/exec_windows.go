//go:build windows

package sidecar

import (
	"errors"
	"os"
	"os/exec"
)

var errInterruptUnsupported = errors.New("interrupt not supported on windows")

func setProcAttrs(*exec.Cmd) {}

// Interrupt is unsupported; callers fall back to Kill.
func (c *execChild) Interrupt() error {
	return errInterruptUnsupported
}

func (c *execChild) Kill() error {
	if c.exited() {
		return nil
	}
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
