//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// detach starts lessond outside the console's process group
func detach(cmd *exec.Cmd, home string) {
	cmd.Env = append(cmd.Environ(), "LESSONPLAY_HOME="+home)
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
}
