//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// detach starts lessond in its own session so closing the terminal
// does not deliver SIGHUP to it
func detach(cmd *exec.Cmd, home string) {
	cmd.Env = append(cmd.Environ(), "LESSONPLAY_HOME="+home)
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
